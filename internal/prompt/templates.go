package prompt

import "text/template"

func parse(name, text string) *template.Template {
	return template.Must(template.New(name).Parse(text))
}

var formatSystem = parse("format-system", `You are an expert in {{.Lang.Name}} code formatting and style guides. `+
	`Your task is to review and fix {{.Lang.Name}} code snippets by applying the formatting conventions of the language. `+
	`Ensure that the code is properly indented, but do not change names and variables. `+
	`Provide well-formatted, readable {{.Lang.Name}} code.`)

var formatFunction = parse("format-function", `Here is a {{.Lang.Name}} function from {{.Path}} that needs to be formatted. `+
	`Please review and correct the formatting based on proper indentation, line length and any other applicable guidelines. `+
	`Make sure the code is compilable.
**Do not explain changes you made.**

`+"```{{.Lang.Fence}}\n{{.Code}}\n```\n"+`
Reply with the formatted code only, in a single code block.
`)

var formatMethod = parse("format-method", `Here is the method {{.Name}} of {{.Receiver}} from {{.Path}} that needs to be formatted. `+
	`Please review and correct the formatting based on proper indentation, line length and any other applicable guidelines. `+
	`Keep the method attached to {{.Receiver}}. Make sure the code is compilable.
**Do not explain changes you made.**

`+"```{{.Lang.Fence}}\n{{.Code}}\n```\n"+`
Reply with the formatted code only, in a single code block.
`)

var explainSystem = parse("explain-system", `You are a world-class {{.Lang.Name}} developer with an eagle eye for unintended bugs and edge cases. `+
	`You have the full source code of a {{.Lang.Name}} module and you need to carefully explain the code of a single `+
	`function with great detail and accuracy. `+
	`You organize your explanations in markdown-formatted, bulleted lists.`)

var explainModule = parse("explain-module", `Full {{.Lang.Name}} module source code with full path: {{.Path}}:

`+"```{{.Lang.Fence}}\n{{.Source}}\n```\n")

var explainUnit = parse("explain-unit", `Review and explain the following {{.Lang.Name}} function of the module above. `+
	`Review what each element of the function is doing precisely and what the author's intentions may have been. `+
	`Organize your explanation as a markdown-formatted, bulleted list.

`+"```{{.Lang.Fence}}\n{{.Code}}\n```\n")

var planUser = parse("plan", `A good unit test suite should aim to:
- Test the function's behavior for a wide range of possible inputs
- Test edge cases that the author may not have foreseen
- Take advantage of the features of `+"`{{.Lang.Framework}}`"+` to make the tests easy to write and maintain
- Be easy to read and understand, with clean code and descriptive names
- Be deterministic, so that the tests always pass or fail in the same way

To help unit test the function above, list diverse scenarios that the function should be able to handle `+
	`(and under each scenario, include a few examples as sub-bullets).`)

var generateSystem = parse("generate-system", `You are a world-class {{.Lang.Name}} developer with an eagle eye for unintended bugs and edge cases. `+
	`You write careful, accurate unit tests. `+
	`When asked to reply only with code, you write all of your code in a single block.`)

var generateUser = parse("generate-user", `Using {{.Lang.Name}} and the `+"`{{.Lang.Framework}}`"+` package, write a suite of unit tests for the function, following the cases above. `+
	`Include helpful comments to explain each line.
Make sure the generated {{.Lang.Name}} code is compilable.
**Do not include explanation of the code.**
Reply with the code only, in a single code block.
`)

var consolidateSystem = parse("consolidate-system", `You are a {{.Lang.Name}} code assistant. `+
	`Your task is to merge two or more {{.Lang.Name}} unit test files into a single one, while preserving all functionality and `+
	`ensuring that no test cases are duplicated. `+
	`Analyze each test file, combine them logically, and modify any necessary imports or setup configurations `+
	`to ensure that the merged file will run correctly without errors. `+
	`Retain all docstrings and comments.`)

var consolidateUser = parse("consolidate-user", `I have {{len .Artifacts}} {{.Lang.Name}} unit test files that I need to merge into a single one. `+
	`Please analyze the test cases, imports, and setup configurations of each file and combine them into one `+
	`coherent unit test file. `+
	`Make sure to avoid duplication of test cases and ensure the merged file will run correctly without errors.
**Do not merge separate test suites**
**Do not explain the code**
{{range .Artifacts}}
`+"```{{$.Lang.Fence}}\n{{.}}\n```\n"+`{{end}}
Reply with the merged code only, in a single code block.
`)
