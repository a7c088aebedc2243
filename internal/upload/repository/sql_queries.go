package repository

const (
	createSessionQuery = `INSERT INTO upload_sessions (session_id, file_name, file_size, mime_type, chunk_size, total_chunks, status, final_hash, title, options, created_at, last_activity_at)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now()) RETURNING *`
	getSessionQuery = `SELECT session_id, file_name, file_size, mime_type, chunk_size, total_chunks, status, final_hash, title, options, job_id, created_at, last_activity_at
					FROM upload_sessions WHERE session_id = $1`
	updateSessionStatusQuery = `UPDATE upload_sessions SET status = $2, last_activity_at = now() WHERE session_id = $1`
	setSessionJobQuery       = `UPDATE upload_sessions SET job_id = $2, last_activity_at = now() WHERE session_id = $1`
	touchSessionQuery        = `UPDATE upload_sessions SET last_activity_at = now() WHERE session_id = $1`
	getStaleSessionsQuery    = `SELECT session_id, file_name, file_size, mime_type, chunk_size, total_chunks, status, final_hash, title, options, job_id, created_at, last_activity_at
					FROM upload_sessions WHERE status = 'uploading' AND last_activity_at < $1`

	addChunkQuery = `INSERT INTO upload_chunks (session_id, chunk_index, chunk_size, chunk_hash, s3_key, created_at)
					VALUES ($1, $2, $3, $4, $5, now()) ON CONFLICT (session_id, chunk_index) DO NOTHING`
	getChunkIndicesQuery = `SELECT chunk_index FROM upload_chunks WHERE session_id = $1 ORDER BY chunk_index`
	getChunksQuery       = `SELECT session_id, chunk_index, chunk_size, chunk_hash, s3_key, created_at
					FROM upload_chunks WHERE session_id = $1 ORDER BY chunk_index`
	deleteChunksQuery = `DELETE FROM upload_chunks WHERE session_id = $1`
)
