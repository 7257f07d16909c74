package openai

const summaryPromptTemplate = `You summarize financial news articles and return the result as JSON.

Output ONLY valid JSON. Do not include any preamble, explanation, greeting,
or acknowledgment. Start your response directly with the opening brace { and
end with the closing brace }. Your output must exactly follow this schema:

{
  "summary": "<compressed article text, at most %d words, plain prose, no bullet points>",
  "keywords": ["<lowercase keyword or two-word phrase>", ...]
}

Rules:
- The summary must cover the key facts: companies, figures, events, outlook.
- Write the summary as plain flowing prose. No markdown, no lists, no headings.
- Provide at most %d keywords, each 1-2 words, lowercase, no punctuation.
- If the input contains no meaningful article content, return {"summary": "", "keywords": []}.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.`

const rerankPromptTemplate = `You judge how relevant financial news passages are to a query. Return JSON.

Output ONLY valid JSON. Do not include any preamble, explanation, greeting,
or acknowledgment. Start your response directly with the opening brace { and
end with the closing brace }. Your output must exactly follow this schema:

{
  "scores": [<float between 0.0 and 1.0, one per passage, in passage order>]
}

Rules:
- Score each passage by how directly it answers or informs the query.
- 1.0 means the passage is centrally about the query topic. 0.0 means unrelated.
- You will receive exactly %d passages and must return exactly that many scores.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.`
