package vision

// The extraction contract sent to every vision model. The response must obey
// the sign conventions and the balance equation so downstream validation can
// trust the numbers.
const extractionPrompt = `You are a bank statement extraction engine.
Read the attached bank statement PDF and return ONE JSON object, no markdown, matching exactly this schema:

{
  "bankName": string or null,
  "accountNumber": string or null,
  "accountHolder": string or null,
  "accountType": string or null,
  "statementPeriod": {"from": "YYYY-MM-DD" or null, "to": "YYYY-MM-DD" or null},
  "openingBalance": number,
  "closingBalance": number,
  "totalCredits": number,
  "totalDebits": number,
  "transactions": [
    {"date": "YYYY-MM-DD" or null, "description": string or null, "amount": number, "balance": number or null, "type": "credit" or "debit"}
  ],
  "template": {
    "patterns": {
      "bankName": regex string or null,
      "accountNumber": regex string or null,
      "accountHolder": regex string or null,
      "statementPeriod": regex string with two capture groups or null,
      "transactionTable": regex string or null,
      "headerRow": regex string or null,
      "dateFormat": string or null,
      "amountFormat": string or null,
      "debitIndicator": "minus" or "parentheses" or "separate_column" or null,
      "pageNumber": regex string or null,
      "totalPages": regex string or null
    },
    "columnMapping": {"date": int, "description": int, "amount": int, "balance": int, "credit": int or null, "debit": int or null}
  }
}

Rules:
- Amounts are signed: credits positive, debits negative.
- balance is the running balance AFTER the transaction.
- All dates normalized to YYYY-MM-DD.
- The equation openingBalance + totalCredits - totalDebits = closingBalance must hold.
- If a field cannot be determined, use null. Never invent values.`

func buildExtractionPrompt(feedbackHint string) string {
	if feedbackHint == "" {
		return extractionPrompt
	}
	return extractionPrompt + `

A user reported a problem with a previous extraction of this document. Take this into account:
` + feedbackHint
}
