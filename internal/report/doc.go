// Package report renders HPL specifications as Markdown and HTML.
package report
