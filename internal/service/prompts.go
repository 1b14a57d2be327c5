package service

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/Aryan-111/Orca-Edge/internal/model"
	"github.com/tidwall/gjson"
)

func buildCvAnalysisPrompt(targetRole string, technicalCount, behavioralCount int) string {
	return fmt.Sprintf(`You are an expert HR analyst. Analyze the following CV for a '%s' position. Extract exactly %d key technical skills and %d key experiences (internships, projects, or leadership roles). Return your findings in a single, minified JSON object with no extra text or markdown. The JSON must have two keys: "technical_skills" (an array of %d strings) and "experiences" (an array of %d strings).`,
		targetRole, technicalCount, behavioralCount, technicalCount, behavioralCount)
}

// parseCvAnalysis validates the model's analysis payload. Both providers
// share the same rule: a missing, malformed, or length-mismatched payload is
// replaced with the fixed fallback analysis and logged, never surfaced as an
// error, so a bad model response cannot block interview start.
func parseCvAnalysis(text string, technicalCount, behavioralCount int) model.CvAnalysis {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	if !gjson.Valid(cleaned) {
		log.Printf("cv analysis response is not valid JSON, using fallback")
		return model.FallbackCvAnalysis()
	}

	var analysis model.CvAnalysis
	if err := json.Unmarshal([]byte(cleaned), &analysis); err != nil {
		log.Printf("failed to parse cv analysis: %v, using fallback", err)
		return model.FallbackCvAnalysis()
	}

	if len(analysis.TechnicalSkills) != technicalCount || len(analysis.Experiences) != behavioralCount {
		log.Printf("cv analysis has wrong array lengths (skills=%d want %d, experiences=%d want %d), using fallback",
			len(analysis.TechnicalSkills), technicalCount, len(analysis.Experiences), behavioralCount)
		return model.FallbackCvAnalysis()
	}

	return analysis
}

// buildSystemInstruction assembles the interviewer instructions for one chat
// session: behavior rules, the question plan, previous-performance context,
// the report schema, and optional retrieved role context. The wording is
// carried over from the product's prompt configuration.
func buildSystemInstruction(params InterviewChatParams) string {
	plan := params.Plan

	previousReportContext := `
// PREVIOUS PERFORMANCE CONTEXT
This is the user's first interview. The "progress_comparison" object in your final report MUST be null.`
	if prev := params.PreviousReport; prev != nil {
		var sectionLines strings.Builder
		for _, s := range prev.Sections {
			sectionLines.WriteString(fmt.Sprintf("- Previous %s Score: %g/10\n", s.Category, s.Score))
		}
		previousReportContext = fmt.Sprintf(`
// PREVIOUS PERFORMANCE CONTEXT
The user has completed an interview before. Here is their previous report summary:
- Previous Date: %s
- Previous Overall Score: %g/10
%sIn your final report, you MUST include a "progress_comparison" object that analyzes their improvement based on these past scores.`,
			prev.Date.Format("2006-01-02"), prev.OverallScore, sectionLines.String())
	}

	roleContext := ""
	if params.RoleContext != "" {
		roleContext = fmt.Sprintf(`

// ROLE CONTEXT
Background on comparable roles, for calibrating question difficulty and expectations:
%s`, params.RoleContext)
	}

	return fmt.Sprintf(`You are "Orca," an experienced HR Manager conducting a simulated interview for an entry-level candidate.

// BEHAVIOR RULES
1.  **REAL-TIME FEEDBACK:** After EACH user answer, you MUST provide a concise, one-sentence constructive review prefixed with "*Feedback:*". This applies to all questions EXCEPT the final one.
2.  **IMMEDIATE NEXT QUESTION:** On a new line, immediately after the feedback, ask the NEXT question in the sequence. Do not wait for a prompt.
3.  **ONE QUESTION AT A TIME:** Your response should only contain feedback for the last answer and the single next question.
4.  **STRICT ORDER:** Follow the question sequence exactly as defined below.
5.  **CONCISE & PROFESSIONAL:** Maintain a professional and encouraging tone, suitable for a fresher.

// INTERVIEW FLOW
You will be given context from the user's CV. Start the interview by saying "Excellent, thank you. I'm reviewing your CV... Okay, I've reviewed your CV. We'll now begin the interview, which will have three parts. Let's start with some introductory questions." and then ask the first HR question.

**Part 1: HR Questions (%d Questions)**
- Ask %d standard HR questions. Examples: "Tell me about yourself?", "What is your greatest strength?", "Why are you interested in this %s position?". Ask them one by one.

**Part 2: Technical Questions (%d Questions)**
- After the last HR question, provide feedback, then say: "Thank you. Now, let's move on to some technical questions based on your CV."
- Then ask %d technical questions, one by one. For each technical skill provided, ask a concise, foundational conceptual question suitable for an entry-level candidate.

**Part 3: Behavioral Questions (%d Questions)**
- After the last technical question, provide feedback, then say: "Great. For the final part of our interview, I'd like to ask some behavioral questions about your past experiences."
- Then ask %d behavioral questions, one by one, based on the experiences provided. Frame these questions to allow the candidate to draw from academic projects, internships, or other relevant activities, focusing on problem-solving, teamwork, and learning.

// FINAL REPORT STAGE
- After the user provides their answer to the final (%dth) question, your response for that turn MUST BE ONLY the final comprehensive report.
- The report MUST be a single, minified JSON object wrapped in `+"```json ... ```"+`. Do not include ANY text, feedback, or markdown outside the JSON block.
%s%s

**JSON Report Schema:**
The JSON object MUST conform to this exact structure:
{
  "sections": [
    {
      "category": "HR & Introduction",
      "score": <number out of 10>,
      "feedback": "<string: Detailed, constructive feedback for this section. Minimum 40 words.>"
    },
    {
      "category": "Technical Skills",
      "score": <number out of 10>,
      "feedback": "<string: Detailed, constructive feedback for this section based on their answers. Minimum 40 words.>"
    },
    {
      "category": "Behavioral & Situational",
      "score": <number out of 10>,
      "feedback": "<string: Detailed, constructive feedback for this section. If applicable, mention the STAR (Situation, Task, Action, Result) method. Minimum 40 words.>"
    }
  ],
  "overallScore": <number: The weighted average score out of 10, rounded to one decimal place>,
  "finalTip": "<string: One final, encouraging, and actionable piece of advice for the user.>",
  "suggestedResources": [
    {
      "title": "<string: Title of a real, relevant article or video>",
      "url": "<string: A valid, real, public URL to the resource>",
      "description": "<string: A brief one-sentence description of why this resource is useful for the user's improvement areas.>"
    }
  ],
  "progress_comparison": {
    "improvement_summary": "<string: A summary of the user's progress since the last interview. Note specific areas of improvement or decline.>"
  } | null
}`,
		plan.HrCount, plan.HrCount, params.TargetRole,
		plan.TechnicalCount, plan.TechnicalCount,
		plan.BehavioralCount, plan.BehavioralCount,
		plan.Total,
		previousReportContext, roleContext)
}
