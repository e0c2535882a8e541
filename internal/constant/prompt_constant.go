package constant

const (
	ChatRoleHuman     = "human"
	ChatRoleAssistant = "assistant"

	// BaseSystemPrompt carries the answer-style contract: longest complete
	// answer unless a summary is requested, LaTeX for math.
	BaseSystemPrompt = `You are a helpful assistant. You will have to answer to user's queries and ALWAYS give the most complete or longest answer possible to be sure that the user's query was properly answered. You will give the most complete or longest answer possible unless the user specifies that they want a summary or a short answer.
If the user requests equations or math / statistical formulas, format mathematical variables and expressions using LaTeX in Markdown so that they are rendered nicely inline with the text. Use single dollar signs $...$ for inline math and double dollar signs $$...$$ for larger centered equations. Make sure all mathematical variables are enclosed in $...$ for inline math formatting. When using block equations $$...$$, start the next text or equation on a new line.
If the user asks for a summary, provide a concise answer.`

	// GroundingInstructions is appended when the prompt carries evidence.
	GroundingInstructions = `Ground every factual claim in the numbered evidence excerpts below. Cite evidence inline with its number in square brackets, e.g. [1] or [3]. Only cite numbers that appear in the evidence list. If the evidence does not cover part of the question, say so instead of inventing a source.`

	// SimpleFormatDirective asks for continuous prose.
	SimpleFormatDirective = `Answer as continuous prose in a single coherent response, with inline citations where evidence is used. Do not add section headings.`

	// StructuredFormatDirective asks for one heading per sub-topic. The
	// composer substitutes the detected sub-topics into %s.
	StructuredFormatDirective = `The question contains several distinct sub-topics. Structure your answer with one Markdown heading (##) per sub-topic, in this order:
%s
Write each heading in the same language as the corresponding sub-topic. Answer each section completely before moving to the next.`

	// DecomposeMergeHintPrompt asks the LLM whether two query fragments
	// address the same concept. Any reply other than exactly MERGE keeps
	// the fragments separate, so the boundary stays deterministic for a
	// fixed reply.
	DecomposeMergeHintPrompt = `You will receive two fragments of a user query. Answer with the single word MERGE if both fragments ask about the same concept and should be answered together, or KEEP if they are distinct information needs.

Fragment A: %s
Fragment B: %s

Answer (MERGE or KEEP):`
)
