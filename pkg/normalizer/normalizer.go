// Package normalizer 提供教师姓名规范化与相似度计算
package normalizer

import (
	"strings"
	"unicode/utf8"
)

// honorifics 会被剥离的称谓前缀
var honorifics = map[string]bool{
	"sir":  true,
	"miss": true,
	"mr":   true,
	"ms":   true,
	"mrs":  true,
	"sr":   true,
	"dr":   true,
}

// EmptyMarker 课表中表示空位的占位符
const EmptyMarker = "empty"

// NormalizeName 规范化姓名：小写、去除非字母字符、合并空白、去掉开头的称谓
//
// 对结果再次调用结果不变。
func NormalizeName(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.ToLower(raw) {
		switch {
		case r >= 'a' && r <= 'z', r == '-':
			b.WriteRune(r)
		default:
			// 标点和空白都视为分隔符
			b.WriteByte(' ')
		}
	}

	tokens := strings.Fields(b.String())
	for len(tokens) > 1 && honorifics[tokens[0]] {
		tokens = tokens[1:]
	}
	return strings.Join(tokens, " ")
}

// CanonicalName 显示用名称：去除首尾空白并合并连续空白
func CanonicalName(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// IsPlaceholder 是否为空白或占位姓名
func IsPlaceholder(raw string) bool {
	s := strings.TrimSpace(raw)
	return utf8.RuneCountInString(s) < 2 || strings.EqualFold(s, EmptyMarker)
}

// PhoneticKey 简化语音键：元音统一为 a，去掉非字母，合并连续重复字母，截取前 8 位
func PhoneticKey(s string) string {
	var out []byte
	for _, r := range strings.ToLower(s) {
		if r < 'a' || r > 'z' {
			continue
		}
		c := byte(r)
		switch c {
		case 'a', 'e', 'i', 'o', 'u':
			c = 'a'
		}
		if n := len(out); n > 0 && out[n-1] == c {
			continue
		}
		out = append(out, c)
		if len(out) == 8 {
			break
		}
	}
	return string(out)
}

// Levenshtein 编辑距离
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(ra)+1)
	curr := make([]int, len(ra)+1)
	for i := range prev {
		prev[i] = i
	}
	for j := 1; j <= len(rb); j++ {
		curr[0] = j
		for i := 1; i <= len(ra); i++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[i] = min(curr[i-1]+1, prev[i]+1, prev[i-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(ra)]
}

// Similarity 计算两个姓名的相似度 [0,1]
func Similarity(a, b string) float64 {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return 0
	}
	if strings.EqualFold(a, b) {
		return 1.0
	}

	aNorm, bNorm := NormalizeName(a), NormalizeName(b)
	if aNorm == bNorm {
		return 0.99
	}

	score := 0.0
	aKey, bKey := PhoneticKey(aNorm), PhoneticKey(bNorm)
	if longest := max(len(aKey), len(bKey)); longest > 0 {
		score = 1.0 - float64(Levenshtein(aKey, bKey))/float64(longest)
	}

	if aNorm != "" && bNorm != "" && (strings.Contains(aNorm, bNorm) || strings.Contains(bNorm, aNorm)) {
		score = max(score, 0.95)
	}

	if shared := len(sharedTokens(aNorm, bNorm)); shared > 0 {
		score = max(score, 0.85+0.05*float64(shared))
	}

	return min(score, 1.0)
}

// IsSameTeacher 合并前的保护规则：词数相差不超过 2、存在公共词、首词相同
func IsSameTeacher(a, b string) bool {
	ta, tb := strings.Fields(a), strings.Fields(b)
	if len(ta) == 0 || len(tb) == 0 {
		return false
	}
	diff := len(ta) - len(tb)
	if diff > 2 || diff < -2 {
		return false
	}
	if len(sharedTokens(a, b)) == 0 {
		return false
	}
	return ta[0] == tb[0]
}

// sharedTokens 返回两个姓名的公共词（按 a 中出现顺序，去重）
func sharedTokens(a, b string) []string {
	inB := make(map[string]bool)
	for _, t := range strings.Fields(b) {
		inB[t] = true
	}
	var shared []string
	seen := make(map[string]bool)
	for _, t := range strings.Fields(a) {
		if inB[t] && !seen[t] {
			shared = append(shared, t)
			seen[t] = true
		}
	}
	return shared
}
