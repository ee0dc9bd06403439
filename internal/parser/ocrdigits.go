package parser

// digitConfusions maps letters the OCR commonly reads in place of digits in
// this receipt's numeric font back to the digit they stand for. The table
// was collected from observed misreads; it is applied only to tokens that
// are expected to be numeric, never to free text.
var digitConfusions = map[rune]rune{
	'O': '0', 'o': '0',
	'I': '1', 'l': '1', 'i': '1', 'J': '1', 'm': '1', 'M': '1',
	'Z': '2', 'z': '2',
	'S': '3',
	'A': '4', 'a': '4',
	's': '5',
	'G': '6', 'j': '6',
	'T': '7',
	'E': '8', 'e': '8', 'B': '8', 'L': '8',
	'g': '9',
}

// CorrectDigits rewrites confusable letters in a numeric-looking token to
// their digit counterparts. It is total: unmapped runes pass through
// unchanged, and it never fails on any input.
func CorrectDigits(token string) string {
	out := make([]rune, 0, len(token))
	for _, r := range token {
		if d, ok := digitConfusions[r]; ok {
			out = append(out, d)
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
