package uniprot

const prefixes = `PREFIX up: <http://purl.uniprot.org/core/>
PREFIX uniprotkb: <http://purl.uniprot.org/uniprot/>
PREFIX rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#>
PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>
PREFIX faldo: <http://biohackathon.org/resource/faldo#>
`

// Each template takes {{values}}: the space separated uniprotkb: terms.

const namesTemplate = prefixes + `SELECT DISTINCT ?uniprot_id ?reviewed ?name
WHERE
{
  VALUES ?protein { {{values}} }
  BIND(substr(str(?protein), strlen(str(uniprotkb:))+1) AS ?uniprot_id)
  ?protein up:reviewed ?reviewed .
  OPTIONAL {
    ?protein up:recommendedName ?recommended .
    ?recommended up:fullName ?name .
  }
}
`

const sitesTemplate = prefixes + `SELECT DISTINCT ?uniprot_id ?begin ?end ?site ?comment
WHERE
{
  VALUES ?protein { {{values}} }
  BIND(substr(str(?protein), strlen(str(uniprotkb:))+1) AS ?uniprot_id)
  ?protein up:annotation ?annotation .
  { ?annotation a up:Binding_Site_Annotation } UNION { ?annotation a up:Active_Site_Annotation } .
  ?annotation rdf:type ?type .
  BIND(substr(str(?type), strlen(str(up:))+1) AS ?site)
  ?annotation up:range ?range .
  ?range faldo:begin/faldo:position ?begin .
  ?range faldo:end/faldo:position ?end .
  OPTIONAL {
    ?annotation up:ligand ?ligand .
    ?ligand rdfs:comment ?comment .
  }
}
`

const sequencesTemplate = prefixes + `SELECT DISTINCT ?uniprot_id ?sequence
WHERE
{
  VALUES ?protein { {{values}} }
  BIND(substr(str(?protein), strlen(str(uniprotkb:))+1) AS ?uniprot_id)
  ?protein up:sequence ?isoform .
  ?isoform a up:Simple_Sequence ;
    rdf:value ?sequence .
}
`
