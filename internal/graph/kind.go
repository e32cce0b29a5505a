package graph

// PinKind is the type tag carried by a pin. Execution pins carry control
// flow, every other kind carries data. KindAny is a wildcard compatible
// with every data kind in both directions.
type PinKind string

const (
	KindExecution PinKind = "execution"
	KindString    PinKind = "string"
	KindNumber    PinKind = "number"
	KindBoolean   PinKind = "boolean"
	KindObject    PinKind = "object"
	KindArray     PinKind = "array"
	KindAny       PinKind = "any"
)

var allKinds = []PinKind{
	KindExecution,
	KindString,
	KindNumber,
	KindBoolean,
	KindObject,
	KindArray,
	KindAny,
}

// IsValidKind reports whether k is one of the known pin kinds.
func IsValidKind(k PinKind) bool {
	for _, known := range allKinds {
		if k == known {
			return true
		}
	}
	return false
}

// IsData reports whether k carries data rather than control flow.
func (k PinKind) IsData() bool {
	return k != KindExecution
}

// Compatible decides whether a value produced by an output pin of kind
// producer may flow into an input pin of kind consumer.
//
// Rules: execution only matches execution; identical kinds always match;
// any matches every data kind in either position. There is no implicit
// coercion between data kinds (number does not flow into string).
func Compatible(producer, consumer PinKind) bool {
	if producer == KindExecution || consumer == KindExecution {
		return producer == consumer
	}
	if producer == consumer {
		return true
	}
	return producer == KindAny || consumer == KindAny
}
