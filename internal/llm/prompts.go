package llm

import (
	"strings"

	"github.com/intelliquery/intelliquery/internal/models"
)

const parseQueryPrompt = `You are an intelligent assistant for an insurance company. Your task is to parse a user's query into a structured JSON object. Do not output anything other than the JSON object.

Classify the user's intent and extract all relevant entities. The possible intents are:
- "coverage_check": User wants to know if something is covered.
- "condition_retrieval": User is asking about specific conditions, waiting periods, or rules.
- "definition_lookup": User is asking for the definition of a term.
- "decision_check": A shorthand query with key-value pairs that requires a decision.

Extract entities such as: age, gender, location, procedure, policy_duration, disease, etc.

Example 1:
Query: "46M, knee surgery, Pune, 3-month policy"
Output:
{
    "intent": "decision_check",
    "details": {
        "age": 46,
        "gender": "male",
        "procedure": "knee surgery",
        "location": "Pune",
        "policy_duration": "3 months"
    }
}`

const answerPromptHeader = `You are a helpful, friendly, and conversational insurance assistant. Your name is 'IntelliQuery'.
Your task is to answer the user's question in a natural way, based ONLY on the provided context clauses.
Then, fill out the structured JSON object.

**--- High-Quality Example Start ---**
**User Query Example:** "What is the waiting period for pre-existing diseases (PED) to be covered?"
**Context Clause Example:** "Clause 4.1: Pre-existing Diseases: The Company shall not be liable for any claim arising from a PED until thirty-six (36) months of continuous coverage have elapsed since the inception of the first policy. The maximum liability per claim shall be 50% of the Sum Insured."
**Good JSON Output Example:**
{
    "decision": "Covered with Conditions",
    "justification": "Yes, pre-existing diseases are covered, but there's a 36-month (3 year) waiting period after your policy starts. Also, please note that claims for pre-existing diseases are limited to 50% of your total Sum Insured.",
    "amount": null,
    "conditions": "36-month waiting period. Coverage is limited to 50% of the Sum Insured.",
    "referenced_clauses": [
        {
            "clause_number": "4.1",
            "text": "The Company shall not be liable for any claim arising from a PED until thirty-six (36) months...",
            "document_name": "policy_document.pdf"
        }
    ]
}
**--- High-Quality Example End ---**

**Instructions for the real task:**
1.  ` + "`decision`" + `: Set to "Covered", "Not Covered", "Covered with Conditions", or "Information Provided".
2.  ` + "`justification`" + `: This is the most important field. Write a friendly, conversational answer directly addressing the user's question. Use the information from the context. If the context mentions specific monetary limits, amounts, percentages, or time periods (e.g., 'Rs. 50,000', '1% of sum insured', '45 days'), you MUST extract and include them in this conversational answer.
3.  ` + "`conditions`" + `: Briefly list the key conditions or limits in a structured way.
4.  ` + "`referenced_clauses`" + `: Include all the clauses you used to form your answer.

**Now, complete the following task based on the real context and query.**
`

// buildParsePrompt appends the user query to the classification instructions.
func buildParsePrompt(query string) string {
	var b strings.Builder
	b.WriteString(parseQueryPrompt)
	b.WriteString("\n\nQuery: \"")
	b.WriteString(query)
	b.WriteString("\"")
	return b.String()
}

// buildAnswerPrompt formats the retrieved clauses and the user question into a
// single completion prompt.
func buildAnswerPrompt(query string, clauses []models.DocumentChunk) string {
	blocks := make([]string, len(clauses))
	for i, c := range clauses {
		var b strings.Builder
		b.WriteString("Document: ")
		b.WriteString(c.DocumentName)
		b.WriteString("\nClause ")
		b.WriteString(c.ClauseNumber)
		b.WriteString(": ")
		b.WriteString(c.Content)
		blocks[i] = b.String()
	}
	context := strings.Join(blocks, "\n\n---\n\n")

	var b strings.Builder
	b.WriteString(answerPromptHeader)
	b.WriteString("\n**Real Context from Policy Documents:**\n")
	b.WriteString(context)
	b.WriteString("\n\n**Real User Query:** ")
	b.WriteString(query)
	b.WriteString("\n\n**Output must be only the JSON object below:**\n")
	return b.String()
}

// repairInstruction asks the model to correct output that failed to parse.
func repairInstruction(reason string) string {
	return "\n\nYour previous response was not a single valid JSON object (" + reason +
		"). Respond again with ONLY the corrected JSON object, no code fences, no commentary."
}
