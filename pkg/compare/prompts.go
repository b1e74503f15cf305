package compare

import "fmt"

func documentTypePrompt(text string) string {
	return fmt.Sprintf(`Analyze this document and determine its type.
You MUST select EXACTLY one of these options (copy exactly as written):
1. "Data Processing Agreement"
2. "Joint Controller Agreement"
3. "Controller-to-Controller Agreement"
4. "Processor-to-Subprocessor Agreement"
5. "Standard Contractual Clauses"

Look for keywords like:
- Data Processing Agreement: "data processor", "data controller", "processing activities"
- Joint Controller Agreement: "joint controller", "joint determination", "shared responsibility"
- Controller-to-Controller Agreement: "controller to controller", "data sharing between controllers"
- Processor-to-Subprocessor Agreement: "subprocessor", "processor to processor"
- Standard Contractual Clauses: "standard contractual clauses", "SCC", "adequacy decision"

Input text:
%s

Respond in this EXACT JSON format:
{
    "document_type": "EXACT_TYPE_FROM_LIST_ABOVE"
}`, text)
}

func comparePrompt(document, template string) string {
	return fmt.Sprintf(`Compare these two agreements and provide a detailed analysis:

Template agreement:
%s

New agreement:
%s

Provide analysis in this format:
1. Missing Clauses (list any clauses present in template but missing in new agreement)
2. Added Clauses (list any new clauses not in template)
3. Modified Clauses (list clauses with significant changes)
4. Compliance Score (0-100)
5. Key Risks (bullet points of main compliance risks)
6. Recommendations (specific suggestions to improve compliance)`, template, document)
}

func clausePrompt(text string) string {
	return fmt.Sprintf(`You are an expert in legal contract analysis.
Your task is to extract all **clauses** from the following contract text.

### Guidelines:
- A clause may begin with:
  - A number/letter (e.g. "1.", "A."),
  - The word "Clause" followed by a number (e.g. "Clause 1", "Clause 5"), OR
  - An ALL CAPS heading (e.g. "DEFINITIONS", "TRANSFER OF DATA".)

- Each extracted clause must include:
  - **clause_id** (the exact numbering/label from the contract)
  - **heading/title** (use the explicit heading if present)
  - **full text** (the complete text of the clause, including sub-clauses)

- Maintain clause boundaries precisely
- Include all important clauses including exhibits and appendices
- Exclude non-contractual content (page numbers, headers, etc.)
- Response in **valid json** only

Input: %s

Response format:
[
  {
    "clause_id": "<clause_id>",
    "heading/title": "<heading>",
    "full text": "<complete_text>"
  }
]`, text)
}
