package ingredient

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// fractionSlash U+2044，NFKC 分解 ½ 之類字元後的分隔符
const fractionSlash = '⁄'

// ConvertVulgarFractions 將 ½ ⅓ ¾ 等字元轉成 "1/2" 形式；
// 前面緊接數字時補一個空白，"1½" 會變成 "1 1/2"。
func ConvertVulgarFractions(s string) string {
	if !containsFraction(s) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 8)
	var prev rune
	for _, r := range s {
		switch {
		case r == fractionSlash:
			b.WriteRune('/')
		case isVulgarFraction(r):
			if unicode.IsDigit(prev) {
				b.WriteRune(' ')
			}
			b.WriteString(strings.ReplaceAll(norm.NFKC.String(string(r)), string(fractionSlash), "/"))
		default:
			b.WriteRune(r)
		}
		prev = r
	}
	return b.String()
}

func containsFraction(s string) bool {
	for _, r := range s {
		if r == fractionSlash || isVulgarFraction(r) {
			return true
		}
	}
	return false
}

// isVulgarFraction 判斷是否為 NFKC 會分解成 n⁄d 的數字字元
func isVulgarFraction(r rune) bool {
	if r < 0x80 || !unicode.Is(unicode.No, r) {
		return false
	}
	return strings.ContainsRune(norm.NFKC.String(string(r)), fractionSlash)
}
