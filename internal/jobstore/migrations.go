package jobstore

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
    id TEXT PRIMARY KEY,
    configuration_id TEXT NOT NULL,
    job_type TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending',
    input_prompt TEXT NOT NULL,
    input_metadata TEXT,
    output_data TEXT,
    error_message TEXT,
    suggestion_count INTEGER DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    started_at TIMESTAMP,
    completed_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);

CREATE TABLE IF NOT EXISTS suggestions (
    id TEXT PRIMARY KEY,
    job_id TEXT NOT NULL REFERENCES jobs(id),
    title TEXT NOT NULL,
    slug TEXT NOT NULL,
    content TEXT NOT NULL,
    block_type TEXT NOT NULL DEFAULT 'text',
    tags TEXT,
    source_urls TEXT,
    confidence_score REAL DEFAULT 0,
    rationale TEXT,
    status TEXT NOT NULL DEFAULT 'pending',
    created_block_id TEXT,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_suggestions_job_id ON suggestions(job_id);
CREATE INDEX IF NOT EXISTS idx_suggestions_status ON suggestions(status);
`
