package sortspec

import (
	"sort"
	"strings"
)

// Key は並び替えキー1つ分。
type Key struct {
	Field string
	Desc  bool
}

// Parse は "title, price desc" のようなソート指定を解釈する。
// トークンはカンマ区切り、"desc" サフィックス（大文字小文字不問）で降順。
// 形式が崩れたトークンは捨てる（エラーにしない）。
func Parse(spec string) []Key {
	if strings.TrimSpace(spec) == "" {
		return nil
	}

	var keys []Key
	for _, token := range strings.Split(spec, ",") {
		fields := strings.Fields(token)

		switch len(fields) {
		case 1:
			keys = append(keys, Key{Field: fields[0]})
		case 2:
			if !strings.EqualFold(fields[1], "desc") {
				continue
			}
			keys = append(keys, Key{Field: fields[0], Desc: true})
		default:
			continue
		}
	}
	return keys
}

// Clause はソート指定からSQLのORDER BY句を組み立てる。
// columns はエンティティごとの「受け付けるフィールド名（小文字）→カラム名」。
// 未知のフィールドは黙って飛ばし、何も残らなければ "" を返す。
func Clause(spec string, columns map[string]string) string {
	var parts []string

	for _, k := range Parse(spec) {
		col, ok := columns[strings.ToLower(k.Field)]
		if !ok {
			continue
		}
		if k.Desc {
			col += " desc"
		}
		parts = append(parts, col)
	}

	return strings.Join(parts, ", ")
}

// Sort はメモリ上のレコード列をソート指定どおりに安定ソートする。
// fields は「フィールド名（小文字）→比較関数」。先頭トークンが第1キー。
// 未知のフィールドは飛ばし、空の指定なら並びは変えない。
func Sort[T any](items []T, spec string, fields map[string]func(a, b T) int) {
	var cmps []func(a, b T) int

	for _, k := range Parse(spec) {
		cmp, ok := fields[strings.ToLower(k.Field)]
		if !ok {
			continue
		}
		if k.Desc {
			asc := cmp
			cmp = func(a, b T) int { return -asc(a, b) }
		}
		cmps = append(cmps, cmp)
	}

	if len(cmps) == 0 {
		return
	}

	sort.SliceStable(items, func(i, j int) bool {
		for _, cmp := range cmps {
			if c := cmp(items[i], items[j]); c != 0 {
				return c < 0
			}
		}
		return false
	})
}
