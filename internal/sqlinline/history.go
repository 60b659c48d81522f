package sqlinline

const QInsertHistoryEntry = `--sql ed94c3e1-5ecf-42e3-8b77-89df3dadfd2a
insert into content_history (id, app_id, user_id, prompt, generated_text, type, plan, created_at)
values ($1::uuid, $2::text, $3::text, $4::text, $5::text, $6::text, $7::text, $8::timestamptz);
`

const QListHistory = `--sql c0d51e41-15a5-40d1-b6ef-b6a35d871f07
select id::text, user_id, prompt, generated_text, type, plan, created_at
from content_history
where app_id = $1::text
  and user_id = $2::text
order by created_at desc
limit $3::int;
`
