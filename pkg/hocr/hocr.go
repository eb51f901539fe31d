// Package hocr implements parsing and generation of hOCR, the HTML-based
// format OCR engines such as Tesseract use to report recognized text with
// its layout.
//
// The object model follows the hOCR hierarchy:
// Document → Pages → Areas → Paragraphs → Lines → Words. Every word carries
// its bounding box and recognition confidence.
//
// Key Types:
//
// - HOCR: A parsed document with its head metadata
// - Page, Area, Paragraph, Line, Word: The layout hierarchy
// - BoundingBox: The 'bbox' property of an element
// - Properties: The parsed 'title' attribute of an element
//
// Main Functions:
//
// - Parse: Parses hOCR HTML (UTF-8 or Latin-1) into the object model
// - Generate: Renders the object model as hOCR HTML
// - Text: Extracts plain text in reading order
package hocr
