package media

// TagGroup is one non-empty category in a session gallery.
type TagGroup struct {
	Tag    Tag      `json:"tag"`
	Images []*Image `json:"images"`
}

// ClassifyByTag partitions images by tag, returning groups in the fixed
// enumeration order and omitting tags with no members. Images keep their
// input order within each group. Images carrying an unknown tag are grouped
// under "other" rather than dropped.
func ClassifyByTag(images []*Image) []TagGroup {
	byTag := make(map[Tag][]*Image, len(tagOrder))
	for _, img := range images {
		tag := img.Tag
		if !tag.Valid() {
			tag = TagOther
		}
		byTag[tag] = append(byTag[tag], img)
	}

	groups := make([]TagGroup, 0, len(byTag))
	for _, tag := range tagOrder {
		if members := byTag[tag]; len(members) > 0 {
			groups = append(groups, TagGroup{Tag: tag, Images: members})
		}
	}
	return groups
}
