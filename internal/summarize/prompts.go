// Package summarize turns a formatted transcript into English and Bangla minutes.
package summarize

import "strings"

const transcriptPlaceholder = "{transcript}"

// PromptEN asks for structured minutes in English
const PromptEN = "You are an expert meeting assistant. Given the following meeting transcript " +
	"(which may include Bangla or English), generate a structured Minutes of Meeting (MoM) in **English**, covering:\n\n" +
	"- Title\n" +
	"- Attendees (if possible)\n" +
	"- Timestamped key points\n" +
	"- Action items\n\n" +
	"Transcript:\n```\n" + transcriptPlaceholder + "\n```"

// PromptBN asks for concise minutes written in Bangla
const PromptBN = "আপনি একজন দক্ষ মিটিং সহকারী। নিচের মিটিং ট্রান্সক্রিপ্টটি (যেটিতে বাংলা ও ইংরেজি মিশ্রিত ভাষা থাকতে পারে) " +
	"দেখে একটি **বাংলায়** লেখা সংক্ষিপ্ত মিটিং সারাংশ তৈরি করুন (Minutes of Meeting):\n\n" +
	"- শিরোনাম দিন\n" +
	"- অংশগ্রহণকারীদের নাম (যদি বোঝা যায়)\n" +
	"- সময় অনুযায়ী গুরুত্বপূর্ণ পয়েন্ট\n" +
	"- অ্যাকশন আইটেম বা সিদ্ধান্তসমূহ\n\n" +
	"ট্রান্সক্রিপ্ট:\n```\n" + transcriptPlaceholder + "\n```"

// BuildPrompts embeds the formatted transcript verbatim in both templates.
// The transcript is inserted once and never interpreted as a template.
func BuildPrompts(formatted string) (en, bn string) {
	return fill(PromptEN, formatted), fill(PromptBN, formatted)
}

func fill(template, formatted string) string {
	i := strings.Index(template, transcriptPlaceholder)
	return template[:i] + formatted + template[i+len(transcriptPlaceholder):]
}
