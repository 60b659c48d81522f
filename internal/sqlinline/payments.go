package sqlinline

const QInsertPayment = `--sql 75b52def-a9ef-4665-ad9d-a68f78f06ded
insert into payments (id, app_id, user_id, plan, method, subtotal_cents, tax_cents, total_cents, created_at)
values ($1::uuid, $2::text, $3::text, $4::text, $5::text, $6::bigint, $7::bigint, $8::bigint, $9::timestamptz);
`
