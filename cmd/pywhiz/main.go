package main

import (
	"fmt"
	"os"
	"strings"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	args := os.Args[2:]
	var err error
	switch os.Args[1] {
	case "login":
		err = cmdLogin(args)
	case "logout":
		err = cmdLogout()
	case "signup":
		err = cmdSignup(args)
	case "verify":
		err = cmdVerify(args)
	case "forgot-password":
		err = cmdForgotPassword(args)
	case "reset-password":
		err = cmdResetPassword(args)
	case "status":
		err = cmdStatus()
	case "milestones":
		err = cmdMilestones()
	case "progress":
		err = cmdProgress()
	case "continue":
		err = cmdContinue()
	case "learn":
		err = cmdLearn(args)
	case "code":
		err = cmdCode(args)
	case "quiz":
		err = cmdQuiz(args)
	case "reset":
		err = cmdReset(args)
	case "exercises":
		err = cmdExercises(args)
	case "export":
		err = cmdExport(args)
	case "mcp":
		err = cmdMCP()
	case "config":
		err = cmdConfig()
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Printf("pywhiz %s\n", Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`PyWhiz - Learn Python one milestone at a time

Usage:
  pywhiz <command> [arguments]

Account Commands:
  login [email]                       Log in (prompts for the password)
  logout                              Log out and forget the saved session
  signup <username> <email>           Create an account
  verify <email> <code>               Verify your email with the emailed code
  forgot-password <email>             Email a password reset code
  reset-password <email> <code>       Choose a new password
  status                              Show who is logged in

Learning Commands:
  milestones                          List milestones
  progress                            Show your dashboard
  continue                            Show where to pick up
  learn <milestone> [--watched=0.95]  Open a video lesson, report how much you watched
  code <milestone> [file] [inputs...] Show the coding task, or submit a solution file
  quiz <milestone> [answers...]       Show the quiz, or check answers (e.g. A B)
  reset [all|<milestone>]             Reset progress

Practice Commands:
  exercises list                      List personalized exercises
  exercises create <easy|medium|hard> <question...>
  exercises submit <id> <file>        Submit code for a personalized exercise

Other:
  export <file.xlsx>                  Export progress as a spreadsheet
  mcp                                 Start MCP server for AI tutors
  config                              Show current configuration
  help                                Show this help message
  version                             Show version information

Examples:
  pywhiz login ada@example.com
  pywhiz continue
  pywhiz learn m1 --watched=1
  pywhiz code m1 hello.py
  pywhiz quiz m1 A B`)
}

// renderProgressBar creates a visual progress bar
func renderProgressBar(value float64, width int) string {
	filled := int(value * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	empty := width - filled

	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", empty) + "]"
}
