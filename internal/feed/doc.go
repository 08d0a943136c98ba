// Package feed decodes podcast feeds and extracts channel and episode records.
//
// Parse accepts RSS 2.0 (including RDF) and Atom documents and returns a
// Document with a single shape for both formats. Extract then applies the
// podcast-specific rules (iTunes image preference, category fallback,
// enclosure lookup, duration parsing) and produces model records.
//
//	doc, err := feed.Parse(data)
//	channel, episodes := feed.Extract(doc)
package feed
