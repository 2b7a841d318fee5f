// Package schema validates block factor values against declared types.
//
// Experiment files may attach a schema to a block so that typos in factor levels are
// caught when the file is loaded rather than halfway through a session:
//
//	s, err := schema.ParseTypeMap(map[string]string{
//	    "target":   "oneof(left|center|right)",
//	    "distance": "float",
//	})
//	if err := schema.ValidateFactors(s, block.Factors); err != nil {
//	    // every failure is listed in a *schema.AggregateError
//	}
package schema
