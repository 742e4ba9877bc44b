package agent

// System and user prompt templates for brand intelligence extraction.
// Every template demands strict JSON with a confidenceScores map so the
// extractor can route low-confidence fields to review.

const extractionSystemPrompt = `You are a brand intelligence analyst. You read website content and
extract structured facts about the brand. Respond with a single JSON object
and nothing else. Include a "confidenceScores" object mapping every
top-level field you emit to a confidence between 0 and 1, plus an "overall"
score. Do not invent facts; use low confidence when the content is thin.`

const identityPromptTemplate = `Website: %s

Content:
%s

Extract the brand's identity as JSON with these fields:
  "mission": string,
  "vision": string,
  "coreValues": array of strings,
  "brandVoiceAttributes": array of strings,
  "uniqueSellingPropositions": array of strings,
  "targetAudienceSummary": string,
  "industryVertical": string,
  "confidenceScores": object`

const competitorsPromptTemplate = `Website: %s

Content:
%s

Identify likely competitors of this brand as JSON:
  "competitors": array of {"name", "website", "competitionType" (direct|indirect|aspirational), "rationale"},
  "confidenceScores": object with at least "competitors" and "overall"`

const productsPromptTemplate = `Website: %s

Content:
%s

Categorize the brand's products or services as JSON:
  "products": array of {"name", "description", "keyFeatures" (array), "targetMarket"},
  "confidenceScores": object with at least "products" and "overall"`
