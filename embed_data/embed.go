package embed_data

import _ "embed"

//go:embed prompts/analyze_prompt.tmpl
var AnalyzePrompt []byte

//go:embed prompts/fix_prompt.tmpl
var FixPrompt []byte

//go:embed models_details/model_details.json
var ModelDetails []byte
