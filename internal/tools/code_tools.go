package tools

import (
	"fmt"
	"go/parser"
	"go/scanner"
	"go/token"
	"os"
	"path/filepath"
	"strings"
)

const maxLineLength = 120

var extensionLanguages = map[string]string{
	".go":  "go",
	".py":  "python",
	".cpp": "cpp",
	".cc":  "cpp",
	".cxx": "cpp",
	".hpp": "cpp",
	".h":   "cpp",
}

func analyzeCode(args AnalyzeCodeArgs) Result {
	if args.FilePath == "" {
		return failure("analyze_code requires a 'file_path' argument")
	}

	path := expandPath(args.FilePath)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return failure("File not found: %s", args.FilePath)
		}
		return failure("Error analyzing code: %v", err)
	}

	language := strings.ToLower(args.Language)
	if language == "" {
		language = extensionLanguages[strings.ToLower(filepath.Ext(path))]
	}
	if language == "" {
		return failure("Could not determine language for %s; pass the 'language' argument", args.FilePath)
	}

	content := string(data)
	lines := strings.Split(content, "\n")

	var issues, suggestions []string
	switch language {
	case "go":
		issues = append(issues, analyzeGoSyntax(path, data)...)
	case "python":
		issues = append(issues, analyzePythonStructure(lines)...)
		if args.CheckROSPatterns {
			suggestions = append(suggestions, rospyPatternSuggestions(content)...)
		}
	case "cpp":
		issues = append(issues, analyzeCppBalance(content)...)
		if args.CheckROSPatterns {
			suggestions = append(suggestions, roscppPatternSuggestions(content)...)
		}
	default:
		return failure("Unsupported language: %s", language)
	}

	issues = append(issues, styleIssues(lines)...)

	return Result{
		"success":     true,
		"file_path":   path,
		"language":    language,
		"issues":      issues,
		"suggestions": suggestions,
		"line_count":  len(lines),
	}
}

func analyzeGoSyntax(path string, source []byte) []string {
	fset := token.NewFileSet()
	_, err := parser.ParseFile(fset, path, source, parser.AllErrors)
	if err == nil {
		return nil
	}

	var issues []string
	if list, ok := err.(scanner.ErrorList); ok {
		for _, e := range list {
			issues = append(issues, fmt.Sprintf("syntax: line %d: %s", e.Pos.Line, e.Msg))
		}
	} else {
		issues = append(issues, "syntax: "+err.Error())
	}
	return issues
}

// analyzePythonStructure catches gross structural problems without a
// real Python parser: unbalanced brackets and def/class lines missing
// their trailing colon.
func analyzePythonStructure(lines []string) []string {
	var issues []string
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		if (strings.HasPrefix(trimmed, "def ") || strings.HasPrefix(trimmed, "class ")) &&
			!strings.HasSuffix(trimmed, ":") && !strings.HasSuffix(trimmed, "\\") &&
			!strings.HasSuffix(trimmed, "(") && !strings.HasSuffix(trimmed, ",") {
			issues = append(issues, fmt.Sprintf("line %d: %q is missing a trailing colon", i+1, trimmed))
		}
	}
	issues = append(issues, bracketBalanceIssues(strings.Join(lines, "\n"))...)
	return issues
}

func analyzeCppBalance(content string) []string {
	return bracketBalanceIssues(content)
}

// bracketBalanceIssues counts braces, parens and brackets outside of
// string and char literals and line comments.
func bracketBalanceIssues(content string) []string {
	var braces, parens, brackets int
	inString, inChar, inLineComment, inBlockComment := false, false, false, false
	var prev rune

	for _, ch := range content {
		switch {
		case inLineComment:
			if ch == '\n' {
				inLineComment = false
			}
		case inBlockComment:
			if prev == '*' && ch == '/' {
				inBlockComment = false
			}
		case inString:
			if ch == '"' && prev != '\\' {
				inString = false
			}
		case inChar:
			if ch == '\'' && prev != '\\' {
				inChar = false
			}
		default:
			switch ch {
			case '"':
				inString = true
			case '\'':
				inChar = true
			case '/':
				if prev == '/' {
					inLineComment = true
				}
			case '*':
				if prev == '/' {
					inBlockComment = true
				}
			case '{':
				braces++
			case '}':
				braces--
			case '(':
				parens++
			case ')':
				parens--
			case '[':
				brackets++
			case ']':
				brackets--
			}
		}
		prev = ch
	}

	var issues []string
	if braces != 0 {
		issues = append(issues, fmt.Sprintf("unbalanced braces: %+d", braces))
	}
	if parens != 0 {
		issues = append(issues, fmt.Sprintf("unbalanced parentheses: %+d", parens))
	}
	if brackets != 0 {
		issues = append(issues, fmt.Sprintf("unbalanced brackets: %+d", brackets))
	}
	return issues
}

func styleIssues(lines []string) []string {
	var issues []string
	usesTabs, usesSpaces := false, false

	for i, line := range lines {
		if len(line) > maxLineLength {
			issues = append(issues, fmt.Sprintf("line %d: exceeds %d characters", i+1, maxLineLength))
		}
		if line != strings.TrimRight(line, " \t") {
			issues = append(issues, fmt.Sprintf("line %d: trailing whitespace", i+1))
		}
		if strings.HasPrefix(line, "\t") {
			usesTabs = true
		} else if strings.HasPrefix(line, " ") {
			usesSpaces = true
		}
	}

	if usesTabs && usesSpaces {
		issues = append(issues, "mixed tab and space indentation")
	}
	return issues
}

func rospyPatternSuggestions(content string) []string {
	var suggestions []string
	if strings.Contains(content, "import rospy") {
		if !strings.Contains(content, "rospy.init_node") {
			suggestions = append(suggestions, "rospy is imported but rospy.init_node() is never called")
		}
		if strings.Contains(content, "while True") && !strings.Contains(content, "rospy.is_shutdown") {
			suggestions = append(suggestions, "use 'while not rospy.is_shutdown()' instead of 'while True' so the node exits cleanly")
		}
		if strings.Contains(content, "time.sleep") {
			suggestions = append(suggestions, "prefer rospy.Rate/rospy.sleep over time.sleep in ROS nodes")
		}
	}
	if strings.Contains(content, "import rclpy") && !strings.Contains(content, "rclpy.init") {
		suggestions = append(suggestions, "rclpy is imported but rclpy.init() is never called")
	}
	return suggestions
}

func roscppPatternSuggestions(content string) []string {
	var suggestions []string
	if strings.Contains(content, "ros/ros.h") {
		if !strings.Contains(content, "ros::init") {
			suggestions = append(suggestions, "ros/ros.h is included but ros::init() is never called")
		}
		if strings.Contains(content, "while(true)") || strings.Contains(content, "while (true)") {
			suggestions = append(suggestions, "loop on ros::ok() instead of true so the node responds to shutdown")
		}
		if strings.Contains(content, "ros::Subscriber") && !strings.Contains(content, "ros::spin") {
			suggestions = append(suggestions, "a subscriber is declared but ros::spin()/spinOnce() is never called")
		}
	}
	if strings.Contains(content, "rclcpp/rclcpp.hpp") && !strings.Contains(content, "rclcpp::init") {
		suggestions = append(suggestions, "rclcpp is included but rclcpp::init() is never called")
	}
	return suggestions
}
