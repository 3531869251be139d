package wrs

import (
	"errors"

	"github.com/grafana/regexp"
)

// Pattern is a compiled event-type pattern used to decide which like-eligible
// subscriptions receive an emitted event. Event types are dot separated
// ('connection.rise'). Patterns support static segments ('connection'),
// named parameters ('module.:name'), wildcards ('*' for one segment, '**' for
// any number of segments), modifiers (:name?, :name+, :name*) and custom
// segment expressions ('(rise|drop)').
//
// A pattern is anchored at the start of the event type and matches any
// trailing segments, so 'connection' matches 'connection.rise' but not
// 'connections.rise'.
type Pattern struct {
	str    string
	chunks []chunk
	regExp *regexp.Regexp
}

// NewPattern creates a pattern from a string. Returns an error if the pattern
// string is empty, has empty segments, or compiles to an invalid expression.
func NewPattern(patternStr string) (*Pattern, error) {
	if patternStr == "" {
		return nil, errors.New("pattern must not be empty")
	}

	chunks, err := parsePatternChunks(string(patternSeparator) + patternStr)
	if err != nil {
		return nil, err
	}

	patternRegExp, err := regExpFromChunks(chunks)
	if err != nil {
		return nil, err
	}

	return &Pattern{
		str:    patternStr,
		chunks: chunks,
		regExp: patternRegExp,
	}, nil
}

// Match compares an event type to the pattern and returns the named
// parameters captured from it. The second return value reports whether the
// event type matches.
func (p *Pattern) Match(eventType string) (EventParams, bool) {
	matches := p.regExp.FindStringSubmatch(string(patternSeparator) + eventType)
	if len(matches) == 0 {
		return nil, false
	}

	keys := p.regExp.SubexpNames()

	var params EventParams
	for i := 1; i < len(keys); i += 1 {
		if keys[i] == "" {
			continue
		}
		if params == nil {
			params = make(EventParams, len(keys))
		}
		params[keys[i]] = matches[i]
	}

	return params, true
}

// String returns the string representation of the pattern.
func (p *Pattern) String() string {
	return p.str
}

const patternSeparator = '.'

type chunkKind int

const (
	unknown chunkKind = iota
	static
	dynamic
	wildcard
)

type chunkModifier int

const (
	single chunkModifier = iota
	optional
	oneOrMore
	zeroOrMore
)

type chunk = struct {
	kind     chunkKind
	modifier chunkModifier
	key      string
	pattern  string
}

func parsePatternChunks(patternStr string) ([]chunk, error) {
	patternRunes := []rune(patternStr)
	patternRunesLen := len(patternRunes)

	var currentChunk *chunk
	chunks := make([]chunk, 0)
	for i := 0; i < patternRunesLen; i += 1 {
		isLastRune := i+1 == patternRunesLen
		isLastRuneInChunk := isLastRune || patternRunes[i+1] == patternSeparator
		currentRune := patternRunes[i]

		if currentRune == patternSeparator {
			if currentChunk != nil {
				if currentChunk.kind == unknown {
					return nil, errors.New("pattern segments must not be empty")
				}
				chunks = append(chunks, *currentChunk)
			}
			currentChunk = &chunk{}
			continue
		}

		if currentChunk.kind == unknown {
			switch currentRune {
			case ':':
				currentChunk.kind = dynamic
			case '*':
				currentChunk.kind = wildcard
			case '(':
				currentChunk.kind = wildcard
				i -= 1
			default:
				currentChunk.kind = static
				i -= 1
			}
			continue
		}

		if currentRune == '(' {
			if currentChunk.kind == dynamic && currentChunk.key == "" {
				return nil, errors.New("dynamic segments must have a name")
			}

			if currentChunk.pattern != "" {
				return nil, errors.New("pattern segments cannot contain multiple subpatterns")
			}

			closed := false
			for j := i + 1; j < patternRunesLen; j += 1 {
				if patternRunes[j] == ')' {
					currentChunk.pattern = string(patternRunes[i+1 : j])
					i = j
					closed = true
					break
				}
			}
			if !closed {
				return nil, errors.New("unterminated segment subpattern")
			}
			continue
		}

		if isLastRuneInChunk {
			switch currentRune {
			case '?':
				currentChunk.modifier = optional
			case '+':
				currentChunk.modifier = oneOrMore
			case '*':
				currentChunk.modifier = zeroOrMore
			}
			if currentChunk.modifier != single {
				continue
			}
		}

		switch currentChunk.kind {
		case dynamic:
			currentChunk.key += string(currentRune)
		case static:
			currentChunk.pattern += string(currentRune)
		case wildcard:
		}
	}
	if currentChunk != nil {
		if currentChunk.kind == unknown {
			return nil, errors.New("pattern segments must not be empty")
		}
		chunks = append(chunks, *currentChunk)
	}

	return chunks, nil
}

// regExpFromChunks converts parsed pattern chunks to a regular expression.
func regExpFromChunks(chunks []chunk) (*regexp.Regexp, error) {
	regExpStr := "^"
	for _, currentChunk := range chunks {

		switch {
		case currentChunk.kind == static:
			currentChunk.pattern = regexp.QuoteMeta(currentChunk.pattern)
		case currentChunk.pattern == "":
			currentChunk.pattern = "[^.]+"
		default:
			currentChunk.pattern = "(?:" + currentChunk.pattern + ")"
		}

		switch currentChunk.kind {
		case static, wildcard:
			switch currentChunk.modifier {
			case single:
				regExpStr += "\\." + currentChunk.pattern
			case optional:
				regExpStr += "(?:\\." + currentChunk.pattern + ")?"
			case oneOrMore:
				regExpStr += "\\." + currentChunk.pattern + "(?:\\." + currentChunk.pattern + ")*"
			case zeroOrMore:
				regExpStr += "(?:\\." + currentChunk.pattern + "(?:\\." + currentChunk.pattern + ")*)?"
			}
		case dynamic:
			switch currentChunk.modifier {
			case single:
				regExpStr += "\\.(?P<" + currentChunk.key + ">" + currentChunk.pattern + ")"
			case optional:
				regExpStr += "(?:\\.(?P<" + currentChunk.key + ">" + currentChunk.pattern + "))?"
			case oneOrMore:
				regExpStr += "\\.(?P<" + currentChunk.key + ">(?:" + currentChunk.pattern + ")(?:\\." + currentChunk.pattern + ")*)"
			case zeroOrMore:
				regExpStr += "(?:\\.(?P<" + currentChunk.key + ">" + currentChunk.pattern + "(?:\\." + currentChunk.pattern + ")*))?"
			}
		}
	}

	regExpStr += "(?:\\..*)?$"

	return regexp.Compile(regExpStr)
}
