package schema

import (
	"regexp"
	"strings"
	"sync"
)

// DetectCaseSensitivity picks the first storage mode the source admits to, in the order
// lower, upper, mixed; a source admitting none is case sensitive.
func DetectCaseSensitivity(s IdentifierStorage) CaseSensitivity {
	switch {
	case s.StoresLower:
		return InsensitiveStoredLower
	case s.StoresUpper:
		return InsensitiveStoredUpper
	case s.StoresMixed:
		return InsensitiveStoredMixed
	default:
		return Sensitive
	}
}

func isQuoted(id string) bool {
	return len(id) >= 2 && strings.HasPrefix(id, `"`) && strings.HasSuffix(id, `"`)
}

// NormalizeIdentifier folds an unquoted identifier the way the database would store it.
// Quoted identifiers are returned as given.
func NormalizeIdentifier(id string, cs CaseSensitivity) string {
	if isQuoted(id) {
		return id
	}
	switch cs {
	case InsensitiveStoredLower:
		return strings.ToLower(id)
	case InsensitiveStoredUpper:
		return strings.ToUpper(id)
	default:
		return id
	}
}

// CompilePattern compiles a relation name expression anchored at both ends, so that it must
// match a whole relation id. An empty expression yields a nil pattern.
func CompilePattern(which, expr string) (*regexp.Regexp, error) {
	if expr == "" {
		return nil, nil
	}
	re, err := regexp.Compile(`^(?:` + expr + `)$`)
	if err != nil {
		return nil, &PatternError{Which: which, Pattern: expr, Err: err}
	}
	return re, nil
}

// Included applies the include and exclude patterns to the textual relation id. A nil include
// pattern matches everything; a nil exclude pattern matches nothing.
func Included(rel RelId, include, exclude *regexp.Regexp) bool {
	return IncludedName(rel.String(), include, exclude)
}

func IncludedName(id string, include, exclude *regexp.Regexp) bool {
	inc := include == nil || fullMatch(include, id)
	exc := exclude != nil && fullMatch(exclude, id)
	return inc && !exc
}

// anchoredPatterns caches the anchored form of patterns that were not built by CompilePattern.
var anchoredPatterns sync.Map // *regexp.Regexp -> *regexp.Regexp

// fullMatch guards against patterns compiled elsewhere without anchors.
func fullMatch(re *regexp.Regexp, s string) bool {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return false
	}
	if loc[0] == 0 && loc[1] == len(s) {
		return true
	}
	return anchored(re).MatchString(s)
}

func anchored(re *regexp.Regexp) *regexp.Regexp {
	if a, ok := anchoredPatterns.Load(re); ok {
		return a.(*regexp.Regexp)
	}
	// re compiled, so the wrapped expression does too
	a := regexp.MustCompile(`^(?:` + re.String() + `)$`)
	actual, _ := anchoredPatterns.LoadOrStore(re, a)
	return actual.(*regexp.Regexp)
}
