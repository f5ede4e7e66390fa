// Package tool holds the network tools the pipeline uses for research.
//
// WebExtractor is the content-extraction service. It downloads a page, removes
// navigation and script noise with goquery, prefers <article> then <main> then
// <body>, strips residual markup with bluemonday and returns plain text. It never
// fails loudly: problems are reported in Extraction.Error so a caller can keep
// going with whatever it already has.
//
// BraveSearch finds candidate sources for a topic through the Brave Search API.
package tool
