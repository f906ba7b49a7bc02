/*
Package runner implements the interactive loop of a questionnaire session.

It acts as the bridge between the session controller and the outside world:
the runner turns the controller state into prompts, reads answers and commands
through a pluggable IOHandler, and reports failures without ending the session.

# Key Components

  - Runner: drives a session.Controller until the user quits or input ends.
  - IOHandler: decouples how prompts are shown and answers are read.
  - TextHandler: line based interface for terminals and pipes.
  - JSONHandler: JSON-Lines interface for headless integrations.

Typing back, restart, export or quit in place of an answer runs the matching
command.

# Usage

	c := session.New(session.WithTreeBackend(client), session.WithFlatBackend(client))
	r := runner.New(c, runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)))

	if err := r.Run(ctx, "E"); err != nil {
		log.Fatal(err)
	}
*/
package runner
