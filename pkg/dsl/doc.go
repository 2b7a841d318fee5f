/*
Package dsl provides a fluent Go API for declaring experiment designs.

It is the programmatic counterpart of experiment files: blocks, factors and ordering
rules are declared in code and validated when the design is built, so a reserved or
mismatched factor fails before any sequence is generated.

Example usage:

	blocks, err := dsl.New().
		Block("practice").
			Factor("target", "left", "right").
			Factor("feedback", true).
		Block("test").
			Factor("target", "left", "center", "right").
			Repeat(10).
			Shuffle().
			NoRepeats("target").
		Build()
	if err != nil {
		return err
	}

	seq := sequence.New(sequence.WithSeed(42))
	err = seq.Build(blocks)
*/
package dsl
