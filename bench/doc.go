// Package bench evaluates a hyperplane index against exhaustive ground truth.
//
// Evaluate builds the configured index, answers every query and scores each
// answer against the exact top-k under the evaluation metric:
//
//	res, err := bench.Evaluate(ctx, cfg, data, queries)
//	fmt.Println(res.MeanRecall, res.MeanPrecision)
//
// Candidates are always re-ranked by absolute dot product. The evaluation
// metric only affects scoring, so one run can be judged by DP2H or cosine.
package bench
