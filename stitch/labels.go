package stitch

// GlobalLabel returns the nth canonical global speaker label, starting at 0:
// "Speaker A" through "Speaker Z", then "Speaker AA", "Speaker AB", and so on
// (bijective base-26).
func GlobalLabel(n int) string {
	return "Speaker " + alpha(n)
}

func alpha(n int) string {
	var buf []byte
	for {
		buf = append([]byte{byte('A' + n%26)}, buf...)
		n = n/26 - 1
		if n < 0 {
			break
		}
	}
	return string(buf)
}
