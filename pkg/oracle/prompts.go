package oracle

import (
	"fmt"
	"strings"
)

func matchSystemMessage() string {
	return `You are a construction industry data expert. Your task is to decide whether a contractor name typed by a project owner refers to a company already on their roster.

Contractor names are messy: abbreviations (Const, Bldrs, Mgmt), missing suffixes (LLC, Inc), typos, and word reordering are common. Judge by the company behind the name, not by string similarity alone. Never invent companies that are not on the roster.`
}

func buildMatchPrompt(req MatchRequest) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Query\n%q\n\n", req.Query))
	writeRoster(&sb, req.Roster)

	sb.WriteString(`## Task
Identify every roster entry the query could plausibly refer to. Score each candidate from 0.0 (unrelated) to 1.0 (certainly the same company). Omit candidates scoring below 0.5.

Respond with JSON only:
{
  "matches": [
    {"contractor_id": "<id from roster>", "name": "<roster name>", "score": 0.0, "reasoning": "<one sentence>"}
  ],
  "isLikelyNew": false,
  "suggestedName": "<properly formatted form of the query>"
}

Set isLikelyNew to true only when no candidate reaches 0.5.`)

	return sb.String()
}

func submissionSystemMessage() string {
	return `You are a construction industry data expert reviewing a contractor submission for duplicates.

Contractor names are messy: abbreviations (Const, Bldrs, Mgmt), missing suffixes (LLC, Inc), typos, and word reordering are common. Recommend a merge only when you are confident the submission and the roster entry are the same real company. When in doubt, recommend new and say why.`
}

func buildSubmissionPrompt(req SubmissionRequest) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Submission\nName: %q\n", req.RawName))
	if req.City != "" {
		sb.WriteString(fmt.Sprintf("City: %s\n", req.City))
	}
	if req.Region != "" {
		sb.WriteString(fmt.Sprintf("Region: %s\n", req.Region))
	}
	sb.WriteString("\n")
	writeRoster(&sb, req.Roster)

	sb.WriteString(`## Task
Decide whether this submission duplicates a roster entry or names a new company.

Respond with JSON only:
{
  "recommendation": "new" | "merge",
  "confidence": 0.0,
  "suggestedMatchId": "<id from roster, only when recommending merge>",
  "suggestedMatchName": "<roster name, only when recommending merge>",
  "formattedName": "<properly capitalized full form of the submitted name>",
  "reasoning": "<one or two sentences>",
  "warnings": ["<anything odd about the submission>"]
}`)

	return sb.String()
}

func writeRoster(sb *strings.Builder, roster []RosterEntry) {
	sb.WriteString("## Approved Roster\n")
	if len(roster) == 0 {
		sb.WriteString("(empty)\n\n")
		return
	}

	sb.WriteString("| ID | Name | Location | Also Known As |\n")
	sb.WriteString("|----|------|----------|---------------|\n")
	for _, entry := range roster {
		location := "-"
		if entry.City != "" && entry.Region != "" {
			location = fmt.Sprintf("%s, %s", entry.City, entry.Region)
		} else if entry.City != "" {
			location = entry.City
		}

		aliases := "-"
		if len(entry.Aliases) > 0 {
			show := entry.Aliases
			if len(show) > 5 {
				show = show[:5]
			}
			aliases = strings.Join(show, ", ")
		}

		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
			entry.ID, entry.Name, location, aliases))
	}
	sb.WriteString("\n")
}
