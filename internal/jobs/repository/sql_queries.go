package repository

const (
	createJobQuery = `INSERT INTO processing_jobs (job_id, session_id, input_bucket, input_key, output_bucket, options, status, progress, output_urls, thumbnail_urls, created_at)
					VALUES ($1, $2, $3, $4, $5, $6, $7, 0, '{}', '[]', now()) RETURNING *`
	getJobQuery = `SELECT job_id, session_id, input_bucket, input_key, output_bucket, options, status, progress, output_urls, thumbnail_urls, hls_url, dash_url, metadata, error_message, created_at, started_at, completed_at
					FROM processing_jobs WHERE job_id = $1`
	markProcessingQuery = `UPDATE processing_jobs SET status = 'processing', started_at = COALESCE(started_at, now()) WHERE job_id = $1`
	// GREATEST keeps persisted progress monotonic even across a redelivered job.
	updateProgressQuery = `UPDATE processing_jobs SET progress = GREATEST(progress, $2) WHERE job_id = $1`
	saveOutputsQuery    = `UPDATE processing_jobs
					SET progress = GREATEST(progress, $2),
					    output_urls = $3,
					    thumbnail_urls = $4,
					    hls_url = $5,
					    dash_url = $6,
					    metadata = $7
					WHERE job_id = $1`
	markCompletedQuery = `UPDATE processing_jobs
					SET status = 'completed',
					    progress = 100,
					    output_urls = $2,
					    thumbnail_urls = $3,
					    hls_url = $4,
					    dash_url = $5,
					    metadata = $6,
					    error_message = $7,
					    completed_at = now()
					WHERE job_id = $1 AND status NOT IN ('completed', 'failed')`
	markFailedQuery = `UPDATE processing_jobs
					SET status = 'failed', error_message = $2, completed_at = now()
					WHERE job_id = $1 AND status NOT IN ('completed', 'failed')`
	getTotalJobsQuery = `SELECT COUNT(job_id) FROM processing_jobs`
	listJobsQuery     = `SELECT job_id, session_id, input_bucket, input_key, output_bucket, options, status, progress, output_urls, thumbnail_urls, hls_url, dash_url, metadata, error_message, created_at, started_at, completed_at
					FROM processing_jobs ORDER BY created_at DESC OFFSET $1 LIMIT $2`
	purgeOldJobsQuery = `DELETE FROM processing_jobs WHERE completed_at IS NOT NULL AND completed_at < $1`
)
