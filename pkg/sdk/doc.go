// Package askctx embeds question-answering context assembly in a Go program.
//
// A Client ranks the sections of a precomputed embedding corpus by similarity
// to a question and packs the best ones into a token-bounded completion prompt.
//
//	client, _ := askctx.New(ctx,
//	    askctx.WithEmbedder(myEmbedder),
//	    askctx.WithCorpusFile("olympics_embeddings.parquet"),
//	    askctx.WithSectionsFile("olympics_sections.csv"),
//	)
//	p, _ := client.Prompt(ctx, "Who won the 2020 Summer Olympics men's high jump?")
//	fmt.Println(p.Text)
//
// Sections and embeddings can also be passed in memory with WithSections and
// WithEmbeddings.
package askctx
