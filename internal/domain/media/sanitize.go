package media

// sanitizeUpload strips newline artifacts some clients inject into the upload
// body: the literal two-byte sequence backslash-n, and bare newline bytes.
// It runs on every upload before thumbnailing and encryption so the stored
// ciphertext covers the intended image bytes exactly. Kept as its own step so
// it can be retired without touching the cipher once the client is fixed.
func sanitizeUpload(raw []byte) []byte {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' && i+1 < len(raw) && raw[i+1] == 'n' {
			i++
			continue
		}
		if raw[i] == '\n' {
			continue
		}
		out = append(out, raw[i])
	}
	return out
}
