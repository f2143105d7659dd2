/*
Package chart renders poll tallies as PNG bar charts.

Renderer draws one horizontal bar per choice, most votes at the top, with
at most 20 bars. What gets printed beside each bar and where it goes are
both pluggable:

	r := chart.NewRenderer()
	r.Format = chart.VoteLabel // "2 votes (67%)"
	r.Place = chart.InsideEnd  // inside the bar when it fits

Service puts a Renderer behind the image cache and turns store failures
into placeholder images so embedding clients always receive a PNG.
*/
package chart
