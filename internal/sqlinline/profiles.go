package sqlinline

const QSelectProfile = `--sql 482ccd86-4ef9-4148-bca8-6d509d66fdb6
select
    user_id,
    plan,
    tokens_used_this_month,
    tokens_limit,
    period_started_at,
    created_at,
    updated_at
from profiles
where app_id = $1::text
  and user_id = $2::text
limit 1;
`

// QMergeProfile upserts a profile. Null parameters keep the stored column.
const QMergeProfile = `--sql 3a3dc2e7-e37e-4ff9-92f3-03bdda35b18f
insert into profiles (app_id, user_id, plan, tokens_used_this_month, tokens_limit, period_started_at, created_at, updated_at)
values (
    $1::text,
    $2::text,
    coalesce($3::text, 'FREE'),
    coalesce($4::int, 0),
    coalesce($5::int, 5),
    coalesce($6::timestamptz, now()),
    coalesce($7::timestamptz, now()),
    now()
)
on conflict (app_id, user_id) do update set
    plan = coalesce($3::text, profiles.plan),
    tokens_used_this_month = coalesce($4::int, profiles.tokens_used_this_month),
    tokens_limit = coalesce($5::int, profiles.tokens_limit),
    period_started_at = coalesce($6::timestamptz, profiles.period_started_at),
    created_at = coalesce($7::timestamptz, profiles.created_at),
    updated_at = now();
`

const QResetMonthlyUsage = `--sql 019d3bcf-4236-4338-9cdb-ee216a3f3764
update profiles
set tokens_used_this_month = 0,
    period_started_at = $2::timestamptz,
    updated_at = now()
where app_id = $1::text
  and period_started_at < $2::timestamptz;
`

// QAddTokensUsed applies a delta to the counter. Increments stop at tokens_limit,
// so no row comes back when the stored quota is already spent.
const QAddTokensUsed = `--sql e3766a96-b72f-442f-81a7-dca5a99ed986
update profiles
set tokens_used_this_month = greatest(tokens_used_this_month + $3::int, 0),
    updated_at = now()
where app_id = $1::text
  and user_id = $2::text
  and ($3::int <= 0 or tokens_used_this_month + $3::int <= tokens_limit)
returning tokens_used_this_month, tokens_limit;
`
