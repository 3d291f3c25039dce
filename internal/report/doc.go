// Package report renders the summary of a run.
//
// A Report collects one Entry per finished map. SimpleWriter prints the
// classic fixed-width summary lines, JSONWriter
// emits a document for analysis scripts and MarkdownWriter produces an
// energy table with a chart of the maps per shape. New picks a
// writer by Format; MultiWriter fans a report out to several writers.
package report
