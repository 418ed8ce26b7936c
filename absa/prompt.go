package absa

import (
	"strings"
)

const promptTaskDefinition = `四元組包含：**方面詞(Aspect)**、**意見詞(Opinion)**、**方面類別(Category)** 和 **情價-喚醒度(Valence-Arousal)**。

**Task 3 定義：** 提取 <方面詞, 意見詞, 方面類別, 情價-喚醒度>`

const promptScaleAndRules = `**情價-喚醒度 (Valence-Arousal) 說明:**
- 情價 (Valence): 評分範圍為 1.0 (非常負面) 到 9.0 (非常正面)。
- 喚醒度 (Arousal): 評分範圍為 1.0 (非常平靜) 到 9.0 (非常激動)。

**請遵守以下規則：**
1. 您的回應必須且只能是一個 **JSON 列表**，不包含任何額外解釋或文本。
2. 如果文本中沒有找到任何四元組，請返回一個空列表：` + "`[]`" + `。
3. Category 必須是 'Category List' 中的一個。
4. Valence 和 Arousal 必須是 1.0 到 9.0 之間的**數字類型**。`

const promptResponseFormat = `**請以純粹的 JSON 格式回應，且僅包含 JSON 列表，勿加入任何解釋或額外的文字。**
**回應格式 (JSON Array):**
[
  {"Aspect": "...", "Opinion": "...", "Category": "...", "Valence": 4.5, "Arousal": 3.0},
  ...
]`

// BuildPrompt renders the extraction prompt for one review sentence.
func BuildPrompt(p Profile, text string) string {
	var b strings.Builder

	b.WriteString("您是一位情感分析專家，請從提供的中文")
	b.WriteString(p.Domain)
	b.WriteString("評論中提取所有相關的「情感四元組」(Quadruplet)。\n")
	b.WriteString(promptTaskDefinition)
	b.WriteString("\n\n")

	b.WriteString(`**評論文本 (Text):** "`)
	b.WriteString(text)
	b.WriteString("\"\n\n")

	b.WriteString("**可用的方面類別 (Category List):** ")
	b.WriteString(strings.Join(p.Categories(), ", "))
	b.WriteString("\n\n")

	b.WriteString(promptScaleAndRules)
	b.WriteString("\n\n")

	writeExamples(&b, "**範例(golden arousal example)**", p.ArousalExamples)
	writeExamples(&b, "**範例(golden valence example)**", p.ValenceExamples)

	b.WriteString(promptResponseFormat)
	b.WriteString("\n")
	return b.String()
}

func writeExamples(b *strings.Builder, heading string, examples []string) {
	if len(examples) == 0 {
		return
	}
	b.WriteString(heading)
	b.WriteString("\n")
	for _, ex := range examples {
		b.WriteString(ex)
		b.WriteString("\n")
	}
	b.WriteString("\n")
}
