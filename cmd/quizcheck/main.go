// Command quizcheck validates quiz question JSON files before they are served.
// It checks:
//   - JSON structure and the required top-level "quiz" array
//   - Presence of at least one question
//   - Non-empty question and answer text
//   - Non-empty option strings, and that the answer appears among the options
//     when options are given
//   - Duplicate question text within a file
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Question mirrors the JSON schema for a single quiz question.
type Question struct {
	Text    string   `json:"question"`
	Answer  string   `json:"answer"`
	Options []string `json:"options,omitempty"`
}

// QuizFile mirrors the JSON schema for a quiz file.
type QuizFile struct {
	Quiz []Question `json:"quiz"`
}

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validateQuizFile loads and validates a single quiz JSON file.
func validateQuizFile(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	var file QuizFile
	if err := json.Unmarshal(data, &file); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid JSON: %v", err))
		return result
	}

	if len(file.Quiz) == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "Quiz array is empty or missing")
		return result
	}

	seen := map[string]int{}
	withOptions := 0

	for i, q := range file.Quiz {
		n := i + 1

		if strings.TrimSpace(q.Text) == "" {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Question %d: question text is empty", n))
		}

		if strings.TrimSpace(q.Answer) == "" {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Question %d: answer is empty", n))
		}

		if len(q.Options) > 0 {
			withOptions++
			answerFound := false
			for j, opt := range q.Options {
				if strings.TrimSpace(opt) == "" {
					result.Valid = false
					result.Errors = append(result.Errors, fmt.Sprintf("Question %d: option %d is empty", n, j+1))
				}
				if opt == q.Answer {
					answerFound = true
				}
			}
			if !answerFound && strings.TrimSpace(q.Answer) != "" {
				result.Valid = false
				result.Errors = append(result.Errors, fmt.Sprintf("Question %d: answer %q is not among the options", n, q.Answer))
			}
		}

		if text := strings.TrimSpace(q.Text); text != "" {
			if first, dup := seen[text]; dup {
				result.Valid = false
				result.Errors = append(result.Errors, fmt.Sprintf("Question %d: duplicate of question %d", n, first))
			} else {
				seen[text] = n
			}
		}
	}

	// Add informational data
	if result.Valid {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Questions: %d", len(file.Quiz)))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Multiple choice: %d", withOptions))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Open answer: %d", len(file.Quiz)-withOptions))
	}

	return result
}

// main scans the quiz directory for *.json files and validates each one,
// printing a concise report and exiting with non-zero status if any are
// invalid.
func main() {
	quizDir := "quizzes"
	if len(os.Args) > 1 {
		quizDir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(quizDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding quiz files: %v\n", err)
		os.Exit(1)
	}

	if len(files) == 0 {
		fmt.Printf("No quiz files found in %s\n", quizDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateQuizFile(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All quiz files are valid!")
	} else {
		fmt.Println("❌ Some quiz files have errors")
		os.Exit(1)
	}
}
