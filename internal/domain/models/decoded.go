package models

// DecodedParam is one decoded argument of a call
type DecodedParam struct {
	Name  string
	Type  string
	Value any

	// Decoded holds the nested call when the argument is calldata that was
	// decoded against a further interface
	Decoded *DecodedCall
}

// DecodedCall is calldata decoded against an ABI, arguments in declaration order
type DecodedCall struct {
	Method    string
	Signature string
	Selector  [4]byte
	Params    []DecodedParam
}

// Param returns the argument with the given name
func (c *DecodedCall) Param(name string) (*DecodedParam, bool) {
	if c == nil {
		return nil, false
	}
	for i := range c.Params {
		if c.Params[i].Name == name {
			return &c.Params[i], true
		}
	}
	return nil, false
}

// Document renders the arguments in order. A nested call is placed right
// after its argument under "decodedData". withHeader prefixes the object with
// the signature and selector, as nested calls are shown.
func (c *DecodedCall) Document(withHeader bool) Document {
	if c == nil {
		return nil
	}

	doc := make(Document, 0, len(c.Params)+3)
	if withHeader {
		doc = append(doc,
			Field{Key: "signature", Value: c.Signature},
			Field{Key: "selector", Value: c.Selector},
		)
	}

	for _, p := range c.Params {
		doc = append(doc, Field{Key: p.Name, Value: p.Value})
		if p.Decoded != nil {
			doc = append(doc, Field{Key: "decodedData", Value: p.Decoded.Document(true)})
		}
	}
	return doc
}
