// Package linkextract 从 webhook 返回的任意 JSON 中查找支付跳转链接。
//
// 两阶段查找，先命中者优先：
//  1. 顶层对象按固定顺序检查常见字段名；
//  2. 深度优先遍历，URL 字符串仅在 “字段名+值” 命中主题关键词时采用。
package linkextract

import (
	"regexp"
	"strings"
)

// PriorityKeys 第一阶段按顺序检查的顶层字段
var PriorityKeys = []string{
	"payment_url",
	"paymentUrl",
	"payment_link",
	"paymentLink",
	"checkout_url",
	"checkoutUrl",
	"invoice_url",
	"invoiceUrl",
	"redirect_url",
	"redirectUrl",
	"url",
	"link",
}

var (
	httpURLPattern = regexp.MustCompile(`(?i)^https?://`)
	topicalPattern = regexp.MustCompile(`(?i)payment|checkout|invoice|link|session|order|redirect`)
)

// Extract 查找支付链接，未找到返回 false
func Extract(v Value) (string, bool) {
	if link, ok := extractPriority(v); ok {
		return link, true
	}
	return extractTopical(v, "")
}

// ExtractBytes 解码后查找；无法解析的响应体视为没有链接
func ExtractBytes(body []byte) (string, bool) {
	value, ok := Decode(body)
	if !ok {
		return "", false
	}
	return Extract(value)
}

func extractPriority(v Value) (string, bool) {
	switch v.Kind {
	case KindString:
		// 顶层直接返回 URL 字符串
		return asHTTPURL(v)
	case KindObject:
		for _, key := range PriorityKeys {
			candidate, ok := v.Lookup(key)
			if !ok {
				continue
			}
			if link, ok := asHTTPURL(candidate); ok {
				return link, true
			}
		}
	}
	return "", false
}

func extractTopical(v Value, key string) (string, bool) {
	switch v.Kind {
	case KindObject:
		for _, member := range v.Members {
			if link, ok := extractTopical(member.Value, member.Key); ok {
				return link, true
			}
		}
	case KindArray:
		for _, item := range v.Items {
			if link, ok := extractTopical(item, key); ok {
				return link, true
			}
		}
	case KindString:
		link, ok := asHTTPURL(v)
		if ok && topicalPattern.MatchString(key+link) {
			return link, true
		}
	}
	return "", false
}

func asHTTPURL(v Value) (string, bool) {
	if v.Kind != KindString {
		return "", false
	}
	link := strings.TrimSpace(v.String)
	if !httpURLPattern.MatchString(link) {
		return "", false
	}
	return link, true
}
