package sqlinline

// Worker claim query. PENDING designs are claimed oldest-first; SKIP LOCKED
// keeps concurrent workers from double-claiming.
const QWorkerClaimDesign = `--sql 3c1f0b64-92d7-4f5e-bb1a-8a6f0c2d4e71
with next_design as (
    select id
    from designs
    where status = 'PENDING'
    order by created_at asc
    for update skip locked
    limit 1
),
updated as (
    update designs
    set status = 'PROCESSING', updated_at = now()
    where id in (select id from next_design)
    returning id, room_id, prompt, provider, metadata
)
select * from updated;
`

const QSelectRoomImage = `--sql 9b7d2a10-55c3-47ae-9f02-6d1e8b3a4c52
select r.original_image_url, r.type
from rooms r
where r.id = $1::uuid;
`
