package wrs

type outcomeKind int

const (
	outcomeNone outcomeKind = iota
	outcomeOk
	outcomeBad
	outcomeCode
	outcomeNotDigestible
	outcomeBadDigestion
	outcomeSuppressed
)

// Outcome is the result of dispatching a message to a page. The zero value
// means the page produced nothing and is answered like BadDigestion.
type Outcome struct {
	kind    outcomeKind
	class   string
	data    any
	code    string
	message any
	id      *int64
}

// Ok answers with a successful response carrying a class and data. Data
// implementing Sendable is converted before it is sent.
func Ok(class string, data any) Outcome {
	return Outcome{kind: outcomeOk, class: class, data: data}
}

// Bad answers with a failure response for a code name and message.
func Bad(code string, message any) Outcome {
	return Outcome{kind: outcomeBad, code: code, message: message}
}

// Code answers with a failure response for a code name and an empty message.
func Code(code string) Outcome {
	return Outcome{kind: outcomeCode, code: code}
}

// NotDigestible reports that no page could handle the message. Answered with
// BAD_PAGE.
func NotDigestible() Outcome {
	return Outcome{kind: outcomeNotDigestible}
}

// BadDigestion reports that the page declined the message. Answered with
// BAD_REQUEST.
func BadDigestion() Outcome {
	return Outcome{kind: outcomeBadDigestion}
}

// Suppressed sends nothing back to the client.
func Suppressed() Outcome {
	return Outcome{kind: outcomeSuppressed}
}

// WithID overrides the response ID of an Ok outcome. By default the
// connection's current ID is used.
func (o Outcome) WithID(id int64) Outcome {
	o.id = &id
	return o
}

// IsZero reports whether the outcome is the zero value.
func (o Outcome) IsZero() bool {
	return o.kind == outcomeNone
}

// IsOk reports whether the outcome is an Ok.
func (o Outcome) IsOk() bool {
	return o.kind == outcomeOk
}

// IsSuppressed reports whether the outcome sends nothing.
func (o Outcome) IsSuppressed() bool {
	return o.kind == outcomeSuppressed
}

// Class returns the class of an Ok outcome.
func (o Outcome) Class() string {
	return o.class
}

// Data returns the data of an Ok outcome.
func (o Outcome) Data() any {
	return o.data
}

// CodeName returns the code name of a failure outcome. Sentinel outcomes
// report the code they are answered with.
func (o Outcome) CodeName() string {
	switch o.kind {
	case outcomeNone, outcomeBadDigestion:
		return CodeBadRequest
	case outcomeNotDigestible:
		return CodeBadPage
	case outcomeOk:
		return CodeSuccess
	}
	return o.code
}

func (o Outcome) normalize() Outcome {
	if o.kind == outcomeNone {
		return BadDigestion()
	}
	return o
}
