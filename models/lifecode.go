package models

import (
	"strings"

	"github.com/gosimple/unidecode"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lifeCodeCaser = cases.Lower(language.Und)

// NormalizeLifeCode canonicalises a typed life code: accents are
// transliterated to ASCII, surrounding whitespace is trimmed, inner runs of
// whitespace become single dashes and the result is lower-cased.
//
//	"  Purple  Monkey Ünicorn " -> "purple-monkey-unicorn"
func NormalizeLifeCode(raw string) string {
	ascii := unidecode.Unidecode(raw)
	return lifeCodeCaser.String(strings.Join(strings.Fields(ascii), "-"))
}
