package scanning

// extractionPrompt is the shared prompt used by all providers for itemised receipts
const extractionPrompt = `Extract the receipt information from the image.

Return ONLY valid JSON, no extra text, in this format:

{
  "merchant": "string",
  "date": "string",
  "items": [
    {
      "raw_line": "string",
      "name": "string",
      "qty": number,
      "price": number,
      "needs_manual_price": boolean
    }
  ],
  "subtotal": number,
  "tax": number,
  "tip": number,
  "total": number
}

Rules:
- For each item, raw_line must be the exact text of that line on the receipt.
- price MUST be the numeric amount (including its sign) at the end of raw_line for that same line.
- Negative prices ARE allowed (discounts, happy hour, comps) and must stay negative.
- Lines that correspond to tip, gratuity, or service charge (e.g. "Tip", "Gratuity", "Service Charge", "Serv Chg")
  should be used ONLY to set "tip" and must NOT be included in the items array.
- If there is no tip/gratuity/service-charge line or you are not sure, set tip to 0.
- If you cannot confidently read the price on a line, set "price" to 0 and add "needs_manual_price": true
  for that item.
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// systemPrompt is sent as the system message where the provider supports one
const systemPrompt = "You are an expert at reading and extracting information from receipts and invoices. You must carefully read all text in images and extract accurate information."
