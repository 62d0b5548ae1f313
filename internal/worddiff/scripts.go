package worddiff

// singleCharRanges lists the code point ranges that are tokenized one
// character at a time.
var singleCharRanges = [][2]rune{
	{0x0E00, 0x0E7F},   // Thai
	{0x0E80, 0x0EFF},   // Lao
	{0x0F00, 0x0FFF},   // Tibetan
	{0x1100, 0x11FF},   // Hangul Jamo
	{0x2E80, 0x2FDF},   // CJK radicals, Kangxi radicals
	{0x3000, 0x303F},   // CJK symbols and punctuation
	{0x3040, 0x309F},   // Hiragana
	{0x30A0, 0x30FF},   // Katakana
	{0x3100, 0x312F},   // Bopomofo
	{0x3130, 0x318F},   // Hangul compatibility Jamo
	{0x31A0, 0x31BF},   // Bopomofo extended
	{0x31F0, 0x31FF},   // Katakana phonetic extensions
	{0x3200, 0x33FF},   // enclosed CJK, CJK compatibility
	{0x3400, 0x4DBF},   // CJK extension A
	{0x4E00, 0x9FFF},   // CJK unified ideographs
	{0xAC00, 0xD7AF},   // Hangul syllables
	{0xF900, 0xFAFF},   // CJK compatibility ideographs
	{0xFE30, 0xFE4F},   // CJK compatibility forms
	{0xFF00, 0xFFEF},   // halfwidth and fullwidth forms
	{0x20000, 0x2FA1F}, // CJK extensions B and later, compatibility supplement
}

// IsSingleCharScript reports whether r belongs to a script written without
// word separators.
func IsSingleCharScript(r rune) bool {
	if r < 0x0E00 {
		return false
	}
	for _, rg := range singleCharRanges {
		if r < rg[0] {
			return false
		}
		if r <= rg[1] {
			return true
		}
	}
	return false
}

// HasSingleCharScript reports whether s contains any character that is
// tokenized on its own.
func HasSingleCharScript(s string) bool {
	for _, r := range s {
		if IsSingleCharScript(r) {
			return true
		}
	}
	return false
}
