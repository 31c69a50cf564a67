// Package document covers the ingestion side of the pipeline: loading raw
// files, splitting their text into overlapping chunks, and recording document
// metadata while the retrieval index holds the chunk vectors.
package document
