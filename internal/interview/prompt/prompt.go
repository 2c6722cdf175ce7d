// Package prompt builds the natural-language prompts sent to the generative
// model. Functions here are pure and never validate field presence.
package prompt

import (
	"fmt"
	"strings"

	"interviewprep/internal/interview"
)

// QuestionBatch asks for n question/answer pairs as a JSON array.
func QuestionBatch(role, experience string, topics []string, n int) string {
	return fmt.Sprintf(`You are an AI trained to generate technical interview questions and answers.

Task:
- Role: %s
- Candidate Experience: %s years
- Focus Topics: %s
- Write %d interview questions.
- For each question, generate a detailed but beginner-friendly answer.
- If the answer needs a code example, add a small code block inside.
- Keep formatting very clean.
- Return a pure JSON array like:
[
  {
    "question": "Question here?",
    "answer": "Answer here."
  }
]
Important: Do NOT add any extra text. Only return valid JSON.`,
		role, experience, strings.Join(topics, ", "), n)
}

// ConceptExplanation asks for a deeper explanation of one question as a JSON
// object with a title and an explanation.
func ConceptExplanation(question string) string {
	return fmt.Sprintf(`You are an AI trained to generate explanations for a given interview question.

Task:
- Explain the following interview question and its concept in depth as if you're teaching a beginner developer.
- Question: "%s"
- After the explanation, provide a short and clear title that summarizes the concept for the article or page header.
- If the explanation includes a code example, provide a small code block.
- Keep the formatting very clean and clear.
- Return the result as a valid JSON object in the following format:
{
  "title": "Short title here?",
  "explanation": "Explanation here."
}
Important: Do NOT add any extra text outside the JSON format. Only return valid JSON.`, question)
}

func interviewerPreamble(topic string) string {
	return fmt.Sprintf("You are a highly experienced technical interviewer for a %s position.", topic)
}

// ResumeQuestion grounds the next question on the candidate's resume.
func ResumeQuestion(topic, resumeText string) string {
	var b strings.Builder
	b.WriteString(interviewerPreamble(topic))
	b.WriteString("\nThe candidate's resume is below:\n-----\n")
	b.WriteString(resumeText)
	b.WriteString("\n-----\n")
	b.WriteString("Ask a challenging, relevant, and non-generic interview question that tests their real knowledge or experience, based on their resume.\n")
	b.WriteString("Do NOT ask about things not present in the resume.\n")
	b.WriteString("Only output the question, nothing else.")
	return b.String()
}

// FollowUpQuestion digs deeper into the most recent answer.
func FollowUpQuestion(topic, lastAnswer string) string {
	var b strings.Builder
	b.WriteString(interviewerPreamble(topic))
	fmt.Fprintf(&b, "\nThe candidate previously answered: \"%s\".\n", lastAnswer)
	b.WriteString("Based on their answer, ask a deeper or follow-up question to test their understanding.\n")
	b.WriteString("Only output the question, nothing else.")
	return b.String()
}

// TopicQuestion asks for a role question without further context.
func TopicQuestion(topic string) string {
	var b strings.Builder
	b.WriteString(interviewerPreamble(topic))
	b.WriteString("\nAsk a challenging, relevant, and non-generic interview question for this role.\n")
	b.WriteString("Only output the question, nothing else.")
	return b.String()
}

// Question dispatches on the selected context kind. previousAnswers may be
// empty unless kind is ContextPrevious.
func Question(kind interview.ContextKind, topic, resumeText string, previousAnswers []string) string {
	switch kind {
	case interview.ContextResume:
		return ResumeQuestion(topic, resumeText)
	case interview.ContextPrevious:
		last := ""
		if n := len(previousAnswers); n > 0 {
			last = previousAnswers[n-1]
		}
		return FollowUpQuestion(topic, last)
	default:
		return TopicQuestion(topic)
	}
}

// TranscriptDigest renders answered pairs as "Qn: ...\nAn: ..." lines.
func TranscriptDigest(pairs []interview.QAPair) string {
	lines := make([]string, 0, len(pairs))
	for i, qa := range pairs {
		lines = append(lines, fmt.Sprintf("Q%d: %s\nA%d: %s", i+1, qa.Question, i+1, qa.Answer))
	}
	return strings.Join(lines, "\n")
}

// Report builds the performance report prompt. engagementDigest may be empty
// when no perception data was collected.
func Report(topic string, pairs []interview.QAPair, engagementDigest string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a senior technical interviewer. Here are %d interview questions and the candidate's answers for a %s position:\n", len(pairs), topic)
	b.WriteString(TranscriptDigest(pairs))
	b.WriteString("\n\nAdditional Behavioral Analysis:")
	if engagementDigest != "" {
		b.WriteString("\n")
		b.WriteString(engagementDigest)
	}
	b.WriteString(`

Please provide a detailed, constructive report on the candidate's performance, including:
1. Technical assessment based on their answers
2. Communication and behavioral analysis based on the engagement data
3. Specific strengths and weaknesses
4. Areas for improvement
5. Clear recommendation

Be specific, professional, and constructive. Only output the report, nothing else.`)
	return b.String()
}
