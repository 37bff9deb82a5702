package openai

// understandSystemPrompt constrains the text-understanding call to the fixed
// condition vocabulary. The preprocessor still validates every returned field.
const understandSystemPrompt = `You split a procurement search query into search terms and filters.
Respond with a single JSON object:
{
  "positive": "<terms describing what the user wants>",
  "negative": "<terms the user explicitly excludes, or empty string>",
  "conditions": [{"field": "<field>", "value": "<value>"}]
}
Allowed condition fields:
  date_before, date_after  - value is a date formatted YYYY-MM-DD
  value_above, value_below - value is a plain number
  region_is, organization_is - value is the literal name
Only emit a condition when the query states it explicitly. Never invent
filters. Never use wildcards or boolean operators inside values.`

// judgeSystemPromptFlexible asks for a lenient relevance verdict.
const judgeSystemPromptFlexible = `You judge whether a public procurement notice satisfies a search intent.
Accept the notice when it plausibly matches what the user is looking for,
even if only part of the notice is about it.
Respond with a single JSON object: {"accept": <true|false>, "confidence": <0.0-1.0>}`

// judgeSystemPromptStrict asks for a strict relevance verdict.
const judgeSystemPromptStrict = `You judge whether a public procurement notice satisfies a search intent.
Accept the notice only when its main subject clearly and directly matches
what the user is looking for. When in doubt, reject.
Respond with a single JSON object: {"accept": <true|false>, "confidence": <0.0-1.0>}`
