package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// ParseJSON 解析 JSON 字符串到結構體
func ParseJSON(data string, v interface{}) error {
	return decodeJSON(strings.NewReader(data), v)
}

// ParseJSONBytes 解析 JSON 位元組切片到結構體
func ParseJSONBytes(data []byte, v interface{}) error {
	return decodeJSON(bytes.NewReader(data), v)
}

func decodeJSON(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := dec.Decode(v); err != nil {
		return err
	}

	// 確保沒有多餘資料
	for {
		t, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if t != nil {
			return fmt.Errorf("unexpected extra JSON data")
		}
	}
}

var (
	unquotedKeyPattern  = regexp.MustCompile(`([{\[,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	trailingCommaRegexp = regexp.MustCompile(`,\s*([}\]])`)
	codeFencePattern    = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")
)

// QuoteJSONKeys 將未加雙引號的鍵補上雙引號
func QuoteJSONKeys(raw string) string {
	return unquotedKeyPattern.ReplaceAllString(raw, `$1"$2":`)
}

// RemoveTrailingCommas 移除物件或陣列結尾多餘的逗號
func RemoveTrailingCommas(raw string) string {
	return trailingCommaRegexp.ReplaceAllString(raw, "$1")
}

// StripCodeFences 取出 markdown code fence 內的內容，沒有 fence 時原樣返回
func StripCodeFences(raw string) string {
	if m := codeFencePattern.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return raw
}

// ExtractJSONObject 從 LLM 回應中找出最外層的 JSON 物件並解析到 v。
// 失敗時一律返回 *ParseError。
func ExtractJSONObject(raw string, v interface{}) error {
	text := strings.TrimSpace(raw)
	if text == "" {
		return NewParseError("empty response", raw, nil)
	}
	text = StripCodeFences(text)

	candidate, ok := outermostObject(text)
	if !ok {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start == -1 || end <= start {
			return NewParseError("no JSON object found", raw, nil)
		}
		candidate = text[start : end+1]
	}

	err := ParseJSON(candidate, v)
	if err == nil {
		return nil
	}

	// 嘗試修復常見的格式問題
	repaired := RemoveTrailingCommas(QuoteJSONKeys(candidate))
	if repaired != candidate {
		if rerr := ParseJSON(repaired, v); rerr == nil {
			return nil
		}
	}
	return NewParseError("invalid JSON object", raw, err)
}

// outermostObject 以括號深度找出第一個完整的 {...}，會略過字串中的括號
func outermostObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
