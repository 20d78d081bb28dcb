// Package schema defines the fields of a lexgo index and the documents that are
// added to it.
//
// A Field is a small integer handle assigned in declaration order. It is stable
// for the lifetime of an index and is used as a map key throughout the engine,
// including in space-usage reports.
//
//	b := schema.NewBuilder()
//	title := b.AddTextField("title", schema.TEXT|schema.Stored)
//	price := b.AddU64Field("price", schema.Indexed|schema.Fast)
//	s, _ := b.Build()
//
//	doc := schema.NewDocument().AddText(title, "hello world").AddU64(price, 42)
package schema
