/*
Package visaguide is a client for a visa-eligibility questionnaire service.

It drives two kinds of sessions against the service. A decision-tree session
walks the tree of one visa type node by node until a result node gives a
verdict. A flat session asks batches of questions across all visa types,
narrows later batches with the answer to the screening question, and ends
with a ranked evaluation that can be exported as a PDF report.

# Architecture

The session controller (package session) is a pure state machine over two
backend ports (package ports). The HTTP adapter implements them; the runner
and the knowledge browser are presentation layers that only read controller
state. Decision trees can be rendered and searched offline (package tree).

# Usage

	g := visaguide.New("http://localhost:5000")

	c := g.NewSession()
	if err := c.Start(ctx, "E"); err != nil {
		log.Fatal(err)
	}
	if err := c.Submit(ctx, c.State().CurrentNodeID, domain.Bool(true)); err != nil {
		log.Fatal(err)
	}

	fmt.Println(c.Progress())

To run an interactive session on the terminal instead:

	err := g.Run(ctx, "E", runner.NewTextHandler(os.Stdin, os.Stdout))
*/
package visaguide
