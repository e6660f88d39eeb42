package catalog

// Gemini lists the Gemini models probed by the Gemini provider. Labels are the
// published display names.
var Gemini = []Entry{
	{Name: "gemini-2.0-flash-lite", Label: "Gemini 2.0 Flash-Lite", Active: true},
	{Name: "gemini-2.5-flash-preview-04-17", Label: "Gemini 2.5 Flash Preview 04-17", Active: false},
	{Name: "gemini-2.0-flash", Label: "Gemini 2.0 Flash", Active: true},
	{Name: "gemini-2.5-flash-preview-05-20", Label: "Gemini 2.5 Flash Preview 05-20", Active: false},
	{Name: "gemini-2.5-flash", Label: "Gemini 2.5 Flash", Active: true},
	{Name: "gemini-2.5-flash-lite", Label: "Gemini 2.5 Flash-Lite", Active: true},
	{Name: "gemini-2.5-pro", Label: "Gemini 2.5 Pro", Active: true},
}

// Gemma lists the open Gemma models served through the same API.
var Gemma = []Entry{
	{Name: "gemma-3n-e2b-it", Label: "Gemma 3n E2B", Active: true},
	{Name: "gemma-3n-e4b-it", Label: "Gemma 3n E4B", Active: true},
	{Name: "gemma-3-1b-it", Label: "Gemma 3 1B", Active: true},
	{Name: "gemma-3-4b-it", Label: "Gemma 3 4B", Active: true},
	{Name: "gemma-3-12b-it", Label: "Gemma 3 12B", Active: true},
	{Name: "gemma-3-27b-it", Label: "Gemma 3 27B", Active: true},
}
